package core

// Op is a store operation a principal requests against a resource.
type Op int

const (
	OpRead Op = iota
	OpList
	OpCreate
	OpUpdate
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpList:
		return "list"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Resource identifies a resource type known to the policy evaluator.
// Every new type must be added here and to the evaluator dispatch,
// otherwise it is inaccessible by construction.
type Resource int

const (
	ResourceUserProfile Resource = iota
	ResourceCourse
	ResourceMembership
	ResourceTopic
	ResourceAssignment
	ResourceSubmission
	ResourceConversation
	ResourceQuestionnaire
	ResourceResponse
	ResourceWallet
	ResourceLedgerEntry
)

func (r Resource) String() string {
	switch r {
	case ResourceUserProfile:
		return "user_profile"
	case ResourceCourse:
		return "course"
	case ResourceMembership:
		return "membership"
	case ResourceTopic:
		return "topic"
	case ResourceAssignment:
		return "assignment"
	case ResourceSubmission:
		return "submission"
	case ResourceConversation:
		return "conversation"
	case ResourceQuestionnaire:
		return "questionnaire"
	case ResourceResponse:
		return "questionnaire_response"
	case ResourceWallet:
		return "wallet"
	case ResourceLedgerEntry:
		return "ledger_entry"
	}
	return "unknown"
}

// Reason is a machine-distinguishable deny reason.
type Reason string

const (
	ReasonNotAuthenticated Reason = "not-authenticated"
	ReasonNotAMember       Reason = "not-a-member"
	ReasonInsufficientRole Reason = "insufficient-role"
	ReasonNotOwner         Reason = "not-owner"
	ReasonForgedReference  Reason = "forged-reference"
	ReasonLocked           Reason = "locked"
	ReasonImmutable        Reason = "immutable"
	ReasonUnknownResource  Reason = "unknown-resource"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err maps a decision to the error taxonomy; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonNotAuthenticated:
		return ErrUnauthenticated
	case ReasonLocked:
		return NewInvalidStateError("conversation is locked by a pending operation")
	}
	return NewAuthorizationError(d.Reason)
}

// ReadErr maps a read/list decision to the error taxonomy. Denied reads render
// as ErrNotFound so an unauthorized caller cannot distinguish "absent" from
// "inaccessible" (except for missing authentication, which is always 401
// territory regardless of the target).
func (d Decision) ReadErr() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNotAuthenticated {
		return ErrUnauthenticated
	}
	return ErrNotFound
}
