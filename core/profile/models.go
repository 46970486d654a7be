package profile

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Collection is the store collection holding user profiles, keyed by uid.
const Collection = "user_profiles"

// UserProfile is created exactly once by its own owner on first sign-in,
// mutable only by its owner, and never deletable: rosters and ledgers keep
// referring to it after the fact.
type UserProfile struct {
	UID         string    `json:"uid" validate:"required,max=128"`
	DisplayName string    `json:"displayName" validate:"required,max=200"`
	Email       string    `json:"email" validate:"required,email,max=320"`
	PhotoURL    string    `json:"photoURL,omitempty" validate:"omitempty,url,max=2000"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *UserProfile) Validate() error {
	p.DisplayName = core.CleanString(p.DisplayName)
	p.Email = core.CleanString(p.Email, true /* lower */)
	return core.Validate.Struct(p)
}

// NewProfile contains information needed to register a UserProfile.
type NewProfile struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// UpdateProfile defines what information may be provided to modify an existing UserProfile.
type UpdateProfile struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}
