package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/server"
)

// SSOHandlers contains HTTP handlers for the SSO endpoints.
type SSOHandlers struct {
	ssoService *server.Service
}

// NewSSOHandlers creates new SSO handlers
func NewSSOHandlers(ssoService *server.Service) *SSOHandlers {
	return &SSOHandlers{
		ssoService: ssoService,
	}
}

// RegisterChallenge issues a registration challenge
func (h *SSOHandlers) RegisterChallenge(c *gin.Context) {
	var req core.RegistrationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.ssoService.BeginRegistration(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to create registration challenge")
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// RegisterVerify verifies a registration ceremony result
func (h *SSOHandlers) RegisterVerify(c *gin.Context) {
	var proof core.RegistrationProof

	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	outcome, err := h.ssoService.FinishRegistration(c.Request.Context(), proof)
	if err != nil {
		writeError(c, err, "Registration verification failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified":  outcome.Verified,
		"sso_token": outcome.Token,
		"user":      outcome.User,
	})
}

// LoginChallenge issues an authentication challenge. An empty or omitted
// username selects the discoverable-credential flow.
func (h *SSOHandlers) LoginChallenge(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.ssoService.BeginLogin(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, err, "Failed to create login challenge")
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// LoginVerify verifies an authentication ceremony result
func (h *SSOHandlers) LoginVerify(c *gin.Context) {
	var proof core.AuthenticationProof

	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	outcome, err := h.ssoService.FinishLogin(c.Request.Context(), proof)
	if err != nil {
		writeError(c, err, "Login verification failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified":  outcome.Verified,
		"sso_token": outcome.Token,
		"user":      outcome.User,
	})
}

// VerifyToken reports whether an SSO token is still valid. An invalid token
// is a 200 with valid=false, not an error status.
func (h *SSOHandlers) VerifyToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	c.JSON(http.StatusOK, h.ssoService.VerifyToken(c.Request.Context(), req.Token))
}

// Profile returns the authenticated user's profile
func (h *SSOHandlers) Profile(c *gin.Context) {
	// User ID is set by the auth middleware
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	profile, err := h.ssoService.Profile(c.Request.Context(), userID.(string))
	if err != nil {
		writeError(c, err, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ClearChallenges removes every pending challenge for a username
func (h *SSOHandlers) ClearChallenges(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.ssoService.ClearChallenges(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, err, "Failed to clear challenges")
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeError maps service errors to status codes. The stale-challenge
// conflict carries a stable machine-readable code so clients do not have to
// match on the message text.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, server.ErrStaleChallenge):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Multiple outstanding authentication attempts. Clear pending challenges and try again.",
			"code":  "stale_challenge",
		})
	case errors.Is(err, server.ErrUserNotFound), errors.Is(err, server.ErrCredentialNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, server.ErrUsernameRequired),
		errors.Is(err, server.ErrUserExists),
		errors.Is(err, server.ErrChallengeNotFound),
		errors.Is(err, server.ErrVerificationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
