package policy

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/core/profile"
)

// roleDenial picks the most specific deny reason for a failed role check.
func (e *Evaluator) roleDenial(prn principal.Principal, courseID string) core.Decision {
	if !prn.Authenticated {
		return core.Deny(core.ReasonNotAuthenticated)
	}
	if _, ok := e.res.ActiveRole(prn, courseID); !ok {
		return core.Deny(core.ReasonNotAMember)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

// UserProfile: self-registration on first sign-in, self-service thereafter,
// never deletable (rosters and ledgers keep referencing it).
func (e *Evaluator) authorizeProfile(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	if !prn.Authenticated {
		return core.Deny(core.ReasonNotAuthenticated)
	}

	switch op {
	case core.OpCreate:
		p, ok := after.(profile.UserProfile)
		if !ok || p.UID != prn.ID {
			return core.Deny(core.ReasonNotOwner)
		}
		return core.Allow()
	case core.OpRead, core.OpUpdate:
		p, ok := before.(profile.UserProfile)
		if !ok || p.UID != prn.ID {
			return core.Deny(core.ReasonNotOwner)
		}
		return core.Allow()
	case core.OpDelete:
		return core.Deny(core.ReasonImmutable)
	}
	return core.Deny(core.ReasonNotOwner)
}

func (e *Evaluator) authorizeCourse(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpRead:
		c, ok := before.(course.Course)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if c.IsPublic() || e.res.IsOwner(prn, c) || e.res.IsActiveMember(prn, c.ID) {
			return core.Allow()
		}
		return e.roleDenial(prn, c.ID)
	case core.OpList:
		// listing is always allowed; services restrict results to visible courses
		return core.Allow()
	case core.OpCreate:
		if !prn.Authenticated {
			return core.Deny(core.ReasonNotAuthenticated)
		}
		c, ok := after.(course.Course)
		if !ok || c.OwnerID != prn.ID {
			// a creator may not seat someone else as owner
			return core.Deny(core.ReasonForgedReference)
		}
		return core.Allow()
	case core.OpUpdate, core.OpDelete:
		c, ok := before.(course.Course)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if e.res.IsOwner(prn, c) || e.res.HasActiveRole(prn, c.ID, course.ManagerRoles...) {
			return core.Allow()
		}
		return e.roleDenial(prn, c.ID)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

// CourseMembership: roster rows are managed by instructors-or-above of the
// parent course; a member may always read their own row, any active member
// may read the roster.
func (e *Evaluator) authorizeMembership(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpRead:
		m, ok := before.(course.Membership)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if prn.Authenticated && m.UserID != nil && *m.UserID == prn.ID {
			return core.Allow()
		}
		if e.res.IsActiveMember(prn, m.CourseID) {
			return core.Allow()
		}
		return e.roleDenial(prn, m.CourseID)
	case core.OpList:
		courseID, ok := before.(string)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if e.res.IsActiveMember(prn, courseID) {
			return core.Allow()
		}
		return e.roleDenial(prn, courseID)
	case core.OpCreate:
		m, ok := after.(course.Membership)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		return e.requireManager(prn, m.CourseID)
	case core.OpUpdate, core.OpDelete:
		m, ok := before.(course.Membership)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		// the caller's standing in the parent course decides, not the row being written
		return e.requireManager(prn, m.CourseID)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

func (e *Evaluator) requireManager(prn principal.Principal, courseID string) core.Decision {
	if e.res.HasActiveRole(prn, courseID, course.ManagerRoles...) {
		return core.Allow()
	}
	return e.roleDenial(prn, courseID)
}

func (e *Evaluator) requireStaff(prn principal.Principal, courseID string) core.Decision {
	if e.res.HasActiveRole(prn, courseID, course.StaffRoles...) {
		return core.Allow()
	}
	return e.roleDenial(prn, courseID)
}

// readableCourse allows reads on public courses and to active members.
func (e *Evaluator) readableCourse(prn principal.Principal, courseID string) core.Decision {
	c, ok := e.dir.Course(courseID)
	if !ok {
		// dangling parent: deny, never allow-by-default
		return core.Deny(core.ReasonNotAMember)
	}
	if c.IsPublic() || e.res.IsOwner(prn, c) || e.res.IsActiveMember(prn, courseID) {
		return core.Allow()
	}
	return e.roleDenial(prn, courseID)
}

func (e *Evaluator) authorizeTopic(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpRead:
		t, ok := before.(course.Topic)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		return e.readableCourse(prn, t.CourseID)
	case core.OpList:
		courseID, ok := before.(string)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		return e.readableCourse(prn, courseID)
	case core.OpCreate:
		t, ok := after.(course.Topic)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		return e.requireStaff(prn, t.CourseID)
	case core.OpUpdate, core.OpDelete:
		t, ok := before.(course.Topic)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		return e.requireStaff(prn, t.CourseID)
	}
	return core.Deny(core.ReasonInsufficientRole)
}
