package profile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/storage/document"
)

// Authorizer decides whether a principal may act on a resource.
type Authorizer interface {
	Authorize(prn principal.Principal, op core.Op, res core.Resource, before, after interface{}) core.Decision
}

type Service struct {
	store document.Store
	auth  Authorizer
}

func NewService(store document.Store, auth Authorizer) *Service {
	return &Service{store: store, auth: auth}
}

// Register creates the principal's own profile, exactly once.
func (svc *Service) Register(ctx context.Context, prn principal.Principal, np NewProfile) (UserProfile, error) {
	now := time.Now().UTC()
	prf := UserProfile{
		UID:         prn.ID,
		DisplayName: np.DisplayName,
		Email:       np.Email,
		PhotoURL:    np.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceUserProfile, nil, prf).Err(); err != nil {
		return UserProfile{}, err
	}
	if err := prf.Validate(); err != nil {
		return UserProfile{}, err
	}
	if err := svc.store.Create(ctx, Collection, prf.UID, prf); err != nil {
		if errors.Cause(err) == document.ErrExists {
			return UserProfile{}, core.NewValidationError(errors.New("profile already registered"),
				core.FieldError{Field: "uid", Error: "profile already registered"})
		}
		return UserProfile{}, errors.Wrap(err, "creating profile")
	}
	return prf, nil
}

func (svc *Service) Get(ctx context.Context, prn principal.Principal, uid string) (UserProfile, error) {
	var prf UserProfile
	if err := svc.store.Get(ctx, Collection, uid, &prf); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return UserProfile{}, core.ErrNotFound
		}
		return UserProfile{}, errors.Wrap(err, "getting profile")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceUserProfile, prf, nil).ReadErr(); err != nil {
		return UserProfile{}, err
	}
	return prf, nil
}

func (svc *Service) Update(ctx context.Context, prn principal.Principal, uid string, up UpdateProfile) (UserProfile, error) {
	var prf UserProfile
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(Collection, uid, &prf); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting profile")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceUserProfile, prf, nil).Err(); err != nil {
			return err
		}

		if up.DisplayName != "" {
			prf.DisplayName = up.DisplayName
		}
		if up.Email != "" {
			prf.Email = up.Email
		}
		if up.PhotoURL != "" {
			prf.PhotoURL = up.PhotoURL
		}
		prf.UpdatedAt = time.Now().UTC()
		if err := prf.Validate(); err != nil {
			return err
		}
		return tx.Put(Collection, uid, prf)
	})
	if err != nil {
		return UserProfile{}, err
	}
	return prf, nil
}
