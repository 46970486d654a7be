package course

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Store collections owned by this package.
const (
	Collection           = "courses"
	MembershipCollection = "course_memberships"
	TopicCollection      = "topics"
)

// Roles, weakest to strongest.
const (
	RoleAuditor    = "auditor"
	RoleStudent    = "student"
	RoleTA         = "ta"
	RoleInstructor = "instructor"
	RoleOwner      = "owner"
)

// Membership statuses.
const (
	StatusInvited = "invited"
	StatusActive  = "active"
	StatusRemoved = "removed"
)

// Course visibility.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

var (
	AllRoles = []string{RoleAuditor, RoleStudent, RoleTA, RoleInstructor, RoleOwner}

	// StaffRoles may manage course content (topics, assignments, grading).
	StaffRoles = []string{RoleTA, RoleInstructor, RoleOwner}

	// ManagerRoles may manage the course itself and its roster.
	ManagerRoles = []string{RoleInstructor, RoleOwner}

	rolePriorities = map[string]int{
		RoleOwner:      30,
		RoleInstructor: 20,
		RoleTA:         10,
		RoleStudent:    2,
		RoleAuditor:    1,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

type Course struct {
	ID         string    `json:"id" validate:"required,max=128"`
	Title      string    `json:"title" validate:"required,max=200"`
	Code       string    `json:"code" validate:"omitempty,max=32,alphanum_"`
	OwnerID    string    `json:"ownerId" validate:"required,max=128"`
	Visibility string    `json:"visibility" validate:"required,oneof=public private"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (c *Course) Validate() error {
	c.Title = core.CleanString(c.Title)
	c.Code = core.CleanString(c.Code)
	return core.Validate.Struct(c)
}

func (c Course) IsPublic() bool {
	return c.Visibility == VisibilityPublic
}

// Membership is a roster entry under a Course. UserID is nil while the entry
// is a pending email invitation not yet matched to a principal.
type Membership struct {
	ID        string     `json:"id" validate:"required,max=257"`
	CourseID  string     `json:"courseId" validate:"required,max=128"`
	UserID    *string    `json:"userId" validate:"omitempty,max=128"`
	Email     string     `json:"email" validate:"required,email,max=320"`
	Role      string     `json:"role" validate:"required,oneof=owner instructor ta student auditor"`
	Status    string     `json:"status" validate:"required,oneof=invited active removed"`
	JoinedAt  *time.Time `json:"joinedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// MembershipID derives the roster row id from its course and member keys.
func MembershipID(courseID, memberID string) string {
	return courseID + ":" + memberID
}

func (m *Membership) Validate() error {
	m.Email = core.CleanString(m.Email, true /* lower */)
	return core.Validate.Struct(m)
}

func (m Membership) IsActive() bool {
	return m.Status == StatusActive
}

// HasRole reports whether the membership holds any of the given roles.
func (m Membership) HasRole(roles ...string) bool {
	for _, role := range roles {
		if m.Role == role {
			return true
		}
	}
	return false
}

// AtLeast reports whether the membership's role is at least as strong as `role`.
func (m Membership) AtLeast(role string) bool {
	return RolePriority(m.Role) >= RolePriority(role)
}

// Topic orders assignments within a course.
type Topic struct {
	ID          string    `json:"id" validate:"required,max=128"`
	CourseID    string    `json:"courseId" validate:"required,max=128"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Order       int       `json:"order" validate:"min=0"`
	CreatedBy   string    `json:"createdBy" validate:"required,max=128"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *Topic) Validate() error {
	t.Title = core.CleanString(t.Title)
	t.Description = core.CleanString(t.Description)
	return core.Validate.Struct(t)
}

// Inputs

type NewCourse struct {
	Title      string `json:"title"`
	Code       string `json:"code"`
	Visibility string `json:"visibility"`
}

type UpdateCourse struct {
	Title      string `json:"title"`
	Code       string `json:"code"`
	Visibility string `json:"visibility"`
}

type NewMember struct {
	MemberID string  `json:"memberId"`
	UserID   *string `json:"userId"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
}

type UpdateMember struct {
	UserID *string `json:"userId"`
	Role   string  `json:"role"`
	Status string  `json:"status"`
}

type NewTopic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type UpdateTopic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}
