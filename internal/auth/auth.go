package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer is the iss claim of every access token accepted by the API.
const TokenIssuer = "estate"

// Role is the administrative level stored in a profile.
type Role string

const (
	// RoleSuperAdmin is the top administrative role.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin is the lesser elevated role. Admins may only mutate the
	// properties they created.
	RoleAdmin Role = "admin"
	// RoleUser has no write access to the catalog.
	RoleUser Role = "user"
)

// ParseRole maps a stored role to a Role. Unknown values resolve to RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin:
		return Role(s)
	default:
		return RoleUser
	}
}

// Elevated reports whether the role may author catalog records at all.
func (r Role) Elevated() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// Actor is the authenticated caller of a request.
type Actor struct {
	Role Role
	ID   uuid.UUID
}

var (
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid access token")
)

// RoleResolver returns the stored role of an identity.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (string, error)
}

// TokenVerifier validates HS256 bearer tokens whose subject is the user id.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for userID valid for ttl. Used by tooling and tests;
// token issuance for real users lives with the identity provider.
func (v *TokenVerifier) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    TokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and issuer of the token and returns
// the user id carried in its subject.
func (v *TokenVerifier) Verify(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return v.secret, nil
		},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return userID, nil
}

// Authenticate verifies the token and resolves the role of its subject.
func Authenticate(ctx context.Context, verifier *TokenVerifier, roles RoleResolver, tokenString string) (*Actor, error) {
	userID, err := verifier.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	role, err := roles.RoleOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve role: %w", err)
	}

	return &Actor{ID: userID, Role: ParseRole(role)}, nil
}
