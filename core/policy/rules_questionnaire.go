package policy

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/core/questionnaire"
)

// Questionnaire mirrors Assignment's course-bound/standalone split.
func (e *Evaluator) authorizeQuestionnaire(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpRead:
		q, ok := before.(questionnaire.Questionnaire)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if q.IsStandalone() {
			return e.requireCreator(prn, q.CreatedBy)
		}
		return e.readableCourse(prn, *q.CourseID)
	case core.OpList:
		courseID, ok := before.(string)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		return e.readableCourse(prn, courseID)
	case core.OpCreate:
		q, ok := after.(questionnaire.Questionnaire)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if !prn.Authenticated {
			return core.Deny(core.ReasonNotAuthenticated)
		}
		if q.CreatedBy != prn.ID {
			return core.Deny(core.ReasonForgedReference)
		}
		if q.IsStandalone() {
			return core.Allow()
		}
		return e.requireStaff(prn, *q.CourseID)
	case core.OpUpdate, core.OpDelete:
		q, ok := before.(questionnaire.Questionnaire)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if q.IsStandalone() {
			return e.requireCreator(prn, q.CreatedBy)
		}
		return e.requireStaff(prn, *q.CourseID)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

// QuestionnaireResponse: the denormalized courseId on the row is display-only.
// Instructor access is always derived by dereferencing questionnaireId to the
// questionnaire's actual course; trusting the caller-supplied copy would let a
// legitimate instructor of some *other* course read foreign responses.
func (e *Evaluator) authorizeResponse(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpCreate:
		r, ok := after.(questionnaire.Response)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if !prn.Authenticated {
			return core.Deny(core.ReasonNotAuthenticated)
		}
		if r.UserID != prn.ID {
			return core.Deny(core.ReasonForgedReference)
		}
		if len(r.Responses) == 0 {
			return core.Deny(core.ReasonInsufficientRole)
		}
		q, found := e.dir.Questionnaire(r.QuestionnaireID)
		if !found {
			return core.Deny(core.ReasonNotAMember)
		}
		if !courseRefMatches(r.CourseID, q.CourseID) {
			return core.Deny(core.ReasonForgedReference)
		}
		return core.Allow()
	case core.OpRead:
		r, ok := before.(questionnaire.Response)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if prn.Authenticated && r.UserID == prn.ID {
			return core.Allow()
		}
		return e.responseCourseRole(prn, r, course.StaffRoles...)
	case core.OpList:
		questionnaireID, ok := before.(string)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		q, found := e.dir.Questionnaire(questionnaireID)
		if !found {
			return core.Deny(core.ReasonNotAMember)
		}
		if q.IsStandalone() {
			return e.requireCreator(prn, q.CreatedBy)
		}
		return e.requireStaff(prn, *q.CourseID)
	case core.OpUpdate:
		r, ok := before.(questionnaire.Response)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if !prn.Authenticated {
			return core.Deny(core.ReasonNotAuthenticated)
		}
		if r.UserID != prn.ID {
			return core.Deny(core.ReasonNotOwner)
		}
		if merged, ok := after.(questionnaire.Response); ok && merged.UserID != r.UserID {
			return core.Deny(core.ReasonImmutable)
		}
		return core.Allow()
	case core.OpDelete:
		r, ok := before.(questionnaire.Response)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		// deletion is an instructor action, never the respondent's
		return e.responseCourseRole(prn, r, course.ManagerRoles...)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

// responseCourseRole authorizes against the course resolved through the
// response's true questionnaire reference.
func (e *Evaluator) responseCourseRole(prn principal.Principal, r questionnaire.Response, roles ...string) core.Decision {
	q, ok := e.dir.Questionnaire(r.QuestionnaireID)
	if !ok {
		return core.Deny(core.ReasonNotAMember)
	}
	if q.IsStandalone() {
		return e.requireCreator(prn, q.CreatedBy)
	}
	if e.res.HasActiveRole(prn, *q.CourseID, roles...) {
		return core.Allow()
	}
	return e.roleDenial(prn, *q.CourseID)
}

func courseRefMatches(claimed, actual *string) bool {
	if claimed == nil || actual == nil {
		return claimed == nil && actual == nil
	}
	return *claimed == *actual
}
