package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SSOClaims are the claims carried by an issued SSO token.
type SSOClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
