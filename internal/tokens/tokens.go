package tokens

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Leeway tolerated on exp and nbf during verification, matching the
// clock skew allowed between the API and its clients.
const Leeway = 5 * time.Second

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
}

// Issuer mints signed bearer tokens for authenticated users.
type Issuer struct {
	Key      ed25519.PrivateKey
	Issuer   string
	Audience []string
	Lifetime time.Duration

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (i *Issuer) Issue(username string) (string, error) {
	now := time.Now
	if i.Now != nil {
		now = i.Now
	}
	issuedAt := now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    i.Issuer,
			Audience:  jwt.ClaimStrings(i.Audience),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(time.Second)),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.Lifetime)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(i.Key)
}

// Verifier checks token signatures and claims against the process's
// current verification key. Purely computational, no I/O.
type Verifier struct {
	Key      ed25519.PublicKey
	Issuer   string
	Audience []string
}

func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return v.Key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithLeeway(Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.Issuer),
	)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}

	// The audience claim is a set; it is accepted when it shares at
	// least one entry with the configured audience.
	if !audienceIntersects(claims.Audience, v.Audience) {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func audienceIntersects(got jwt.ClaimStrings, accepted []string) bool {
	for _, g := range got {
		for _, a := range accepted {
			if g == a {
				return true
			}
		}
	}
	return false
}
