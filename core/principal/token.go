package principal

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Claims represents the authorization claims transmitted via a JWT.
// Identity issuance itself belongs to the external provider; we only
// verify signatures and map claims to a stable Principal.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	DisplayName  string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}

func NewClaims(uid, name, email string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   uid,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		DisplayName:  name,
		Email:        email,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(core.Conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Resolver maps a bearer credential to a Principal.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve fails with core.ErrUnauthenticated on a missing, malformed,
// badly-signed or expired token.
func (r *Resolver) Resolve(credential string) (Principal, error) {
	if credential == "" {
		return Anonymous(), core.ErrUnauthenticated
	}

	claims := new(Claims)
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(core.Conf.SecretKey), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return Anonymous(), core.ErrUnauthenticated
	}

	return Principal{
		ID:            claims.Subject,
		DisplayName:   claims.DisplayName,
		Email:         claims.Email,
		Authenticated: true,
	}, nil
}
