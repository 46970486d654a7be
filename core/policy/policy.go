// Package policy is the pure-function authorization engine: given a principal,
// an operation, a resource type and the before/after document states, it
// returns an allow/deny decision with a typed reason. It reads already-fetched
// documents plus at most a membership/parent lookup through Directory, holds
// no mutable state, and is safe for concurrent use.
package policy

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/principal"
)

type Evaluator struct {
	dir Directory
	res Resolver
}

func NewEvaluator(dir Directory) *Evaluator {
	return &Evaluator{dir: dir, res: NewResolver(dir)}
}

// Resolver exposes the membership resolver backing this evaluator.
func (e *Evaluator) Resolver() Resolver {
	return e.res
}

// Authorize decides whether prn may perform op against the given resource.
// `before` is the stored document (read/update/delete); `after` is the
// incoming document (create) or the merged result (update). Unknown resource
// types are denied by construction: every new type must be dispatched here
// explicitly, preserving the fail-closed posture.
func (e *Evaluator) Authorize(prn principal.Principal, op core.Op, res core.Resource, before, after interface{}) core.Decision {
	switch res {
	case core.ResourceUserProfile:
		return e.authorizeProfile(prn, op, before, after)
	case core.ResourceCourse:
		return e.authorizeCourse(prn, op, before, after)
	case core.ResourceMembership:
		return e.authorizeMembership(prn, op, before, after)
	case core.ResourceTopic:
		return e.authorizeTopic(prn, op, before, after)
	case core.ResourceAssignment:
		return e.authorizeAssignment(prn, op, before, after)
	case core.ResourceSubmission:
		return e.authorizeSubmission(prn, op, before, after)
	case core.ResourceConversation:
		return e.authorizeConversation(prn, op, before, after)
	case core.ResourceQuestionnaire:
		return e.authorizeQuestionnaire(prn, op, before, after)
	case core.ResourceResponse:
		return e.authorizeResponse(prn, op, before, after)
	case core.ResourceWallet, core.ResourceLedgerEntry:
		return e.authorizeWallet(prn, op, res, before, after)
	}
	return core.Deny(core.ReasonUnknownResource)
}
