package policy

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/conversation"
	"github.com/trezcool/darasa/core/principal"
)

// Conversation: owned by its student; staff access resolves transitively via
// assignmentId -> Assignment.courseId. Deletion is never allowed (the
// conversation is the submission artifact). Updates are additionally gated on
// the pending flag of the trailing turn.
func (e *Evaluator) authorizeConversation(prn principal.Principal, op core.Op, before, after interface{}) core.Decision {
	switch op {
	case core.OpCreate:
		c, ok := after.(conversation.Conversation)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if !prn.Authenticated {
			return core.Deny(core.ReasonNotAuthenticated)
		}
		if c.UserID != prn.ID {
			return core.Deny(core.ReasonForgedReference)
		}
		a, found := e.dir.Assignment(c.AssignmentID)
		if !found {
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
		c, ok := before.(conversation.Conversation)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if prn.Authenticated && c.UserID == prn.ID {
			return core.Allow()
		}
		return e.conversationStaff(prn, c)
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
		c, ok := before.(conversation.Conversation)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		if c.Locked() {
			// an in-flight pending step owns the conversation right now
			return core.Deny(core.ReasonLocked)
		}
		if prn.Authenticated && c.UserID == prn.ID {
			return core.Allow()
		}
		return e.conversationStaff(prn, c)
	case core.OpDelete:
		return core.Deny(core.ReasonImmutable)
	}
	return core.Deny(core.ReasonInsufficientRole)
}

func (e *Evaluator) conversationStaff(prn principal.Principal, c conversation.Conversation) core.Decision {
	a, ok := e.dir.Assignment(c.AssignmentID)
	if !ok {
		return core.Deny(core.ReasonNotAMember)
	}
	if a.IsStandalone() {
		return e.requireCreator(prn, a.CreatedBy)
	}
	return e.requireStaff(prn, *a.CourseID)
}
