package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

// AudienceSSO marks a token as an SSO bearer token.
const AudienceSSO = "sso:token"

// DefaultTokenExpiry is the issued token lifetime.
const DefaultTokenExpiry = 24 * time.Hour

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	expiry  time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey, expiry: DefaultTokenExpiry}
}

// Issue signs an SSO token for the user.
func (j *JWTTokenizer) Issue(user core.User) (string, error) {
	now := time.Now()
	claims := SSOClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{AudienceSSO},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify parses an SSO token and returns the identity it was issued for.
func (j *JWTTokenizer) Verify(tokenStr string) (*core.User, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SSOClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSSO))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*SSOClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return &core.User{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}
