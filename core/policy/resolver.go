package policy

import (
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/principal"
)

// Resolver answers membership questions for a principal within a course.
// All methods are pure reads; a dangling courseID resolves to "no membership"
// (deny), never to a crash.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) Resolver {
	return Resolver{dir: dir}
}

// ResolveMembership returns the roster row for prn in courseID, if any.
func (r Resolver) ResolveMembership(prn principal.Principal, courseID string) (course.Membership, bool) {
	if !prn.Authenticated {
		return course.Membership{}, false
	}
	return r.dir.Membership(courseID, prn.ID)
}

func (r Resolver) IsOwner(prn principal.Principal, c course.Course) bool {
	return prn.Authenticated && c.OwnerID == prn.ID
}

// IsActiveMember reports whether prn holds an active roster row in courseID
// or owns the course outright.
func (r Resolver) IsActiveMember(prn principal.Principal, courseID string) bool {
	_, ok := r.ActiveRole(prn, courseID)
	return ok
}

// ActiveRole resolves prn's effective role in courseID: the course owner is
// always RoleOwner even without a roster row; otherwise the active roster
// row's role. The second return is false when prn has no standing in the
// course (including when the course itself is gone).
func (r Resolver) ActiveRole(prn principal.Principal, courseID string) (string, bool) {
	if !prn.Authenticated {
		return "", false
	}
	if c, ok := r.dir.Course(courseID); ok && c.OwnerID == prn.ID {
		return course.RoleOwner, true
	}
	if m, ok := r.dir.Membership(courseID, prn.ID); ok && m.IsActive() {
		return m.Role, true
	}
	return "", false
}

// HasActiveRole reports whether prn's effective role in courseID is one of roles.
func (r Resolver) HasActiveRole(prn principal.Principal, courseID string, roles ...string) bool {
	role, ok := r.ActiveRole(prn, courseID)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == want {
			return true
		}
	}
	return false
}
