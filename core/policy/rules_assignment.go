package policy

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/principal"
)

// Assignment: course-bound rows follow course RBAC; standalone rows
// (courseId = null) are private to their creator.
func (e *Evaluator) authorizeAssignment(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpRead:
		a, ok := before.(assignment.Assignment)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if a.IsStandalone() {
			return e.requireCreator(prn, a.CreatedBy)
		}
		return e.readableCourse(prn, *a.CourseID)
	case core.OpList:
		courseID, ok := before.(string)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		return e.readableCourse(prn, courseID)
	case core.OpCreate:
		a, ok := after.(assignment.Assignment)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if !prn.Authenticated {
			return core.Deny(core.ReasonNotAuthenticated)
		}
		if a.CreatedBy != prn.ID {
			return core.Deny(core.ReasonForgedReference)
		}
		if a.IsStandalone() {
			return core.Allow()
		}
		return e.requireStaff(prn, *a.CourseID)
	case core.OpUpdate, core.OpDelete:
		a, ok := before.(assignment.Assignment)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if a.IsStandalone() {
			return e.requireCreator(prn, a.CreatedBy)
		}
		return e.requireStaff(prn, *a.CourseID)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

func (e *Evaluator) requireCreator(prn principal.Principal, createdBy string) core.Decision {
	if !prn.Authenticated {
		return core.Deny(core.ReasonNotAuthenticated)
	}
	if createdBy != prn.ID {
		return core.Deny(core.ReasonNotOwner)
	}
	return core.Allow()
}

// Submission: created once by the submitting student in in_progress; the
// student may mutate only while in_progress, staff may grade at any state.
func (e *Evaluator) authorizeSubmission(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpCreate:
		s, ok := after.(assignment.Submission)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if !prn.Authenticated {
			return core.Deny(core.ReasonNotAuthenticated)
		}
		if s.UserID != prn.ID {
			return core.Deny(core.ReasonForgedReference)
		}
		if s.State != assignment.StateInProgress {
			return core.Deny(core.ReasonLocked)
		}
		a, ok := e.dir.Assignment(s.AssignmentID)
		if !ok {
			return core.Deny(core.ReasonNotAMember)
		}
		if a.IsStandalone() {
			return e.requireCreator(prn, a.CreatedBy)
		}
		if !e.res.IsActiveMember(prn, *a.CourseID) {
			return e.roleDenial(prn, *a.CourseID)
		}
		return core.Allow()
	case core.OpRead:
		s, ok := before.(assignment.Submission)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if prn.Authenticated && s.UserID == prn.ID {
			return core.Allow()
		}
		return e.submissionStaff(prn, s)
	case core.OpList:
		assignmentID, ok := before.(string)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		a, found := e.dir.Assignment(assignmentID)
		if !found {
			return core.Deny(core.ReasonNotAMember)
		}
		if a.IsStandalone() {
			return e.requireCreator(prn, a.CreatedBy)
		}
		return e.requireStaff(prn, *a.CourseID)
	case core.OpUpdate:
		s, ok := before.(assignment.Submission)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if prn.Authenticated && s.UserID == prn.ID {
			if s.State != assignment.StateInProgress {
				// submitted work is out of the student's hands
				return core.Deny(core.ReasonLocked)
			}
			return core.Allow()
		}
		return e.submissionStaff(prn, s)
	case core.OpDelete:
		s, ok := before.(assignment.Submission)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		a, found := e.dir.Assignment(s.AssignmentID)
		if !found {
			return core.Deny(core.ReasonNotAMember)
		}
		if a.IsStandalone() {
			return e.requireCreator(prn, a.CreatedBy)
		}
		return e.requireManager(prn, *a.CourseID)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

// submissionStaff resolves the submission's course transitively via its
// assignment and requires a staff role there.
func (e *Evaluator) submissionStaff(prn principal.Principal, s assignment.Submission) core.Decision {
	a, ok := e.dir.Assignment(s.AssignmentID)
	if !ok {
		return core.Deny(core.ReasonNotAMember)
	}
	if a.IsStandalone() {
		return e.requireCreator(prn, a.CreatedBy)
	}
	return e.requireStaff(prn, *a.CourseID)
}
