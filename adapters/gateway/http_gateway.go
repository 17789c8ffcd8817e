// Package gateway implements the typed HTTP request layer over the SSO
// backend's REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

// Config controls the backend endpoint and request timeout.
type Config struct {
	BaseURL string        `env:"TESTSSO_API_URL"     envDefault:"http://localhost:8000/api"`
	Timeout time.Duration `env:"TESTSSO_API_TIMEOUT" envDefault:"15s"`
}

// LoadConfigFromEnv returns gateway configuration with defaults.
func LoadConfigFromEnv() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{BaseURL: "http://localhost:8000/api", Timeout: 15 * time.Second}
	}
	return cfg
}

// HTTPGateway implements ports.Gateway against the REST API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// New creates a gateway for the configured backend.
func New(cfg Config) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

var _ ports.Gateway = (*HTTPGateway)(nil)

// errorBody is the wire shape of a non-2xx response. Code is the stable
// machine-readable classification; the message substring check remains as a
// fallback for backends that predate the code field.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const staleChallengeCode = "stale_challenge"

// verifyBody tolerates every success/token field name the server may use and
// folds them into one canonical outcome.
type verifyBody struct {
	Verified      *bool      `json:"verified,omitempty"`
	Success       *bool      `json:"success,omitempty"`
	Authenticated *bool      `json:"authenticated,omitempty"`
	SSOToken      string     `json:"sso_token,omitempty"`
	Token         string     `json:"token,omitempty"`
	User          *core.User `json:"user,omitempty"`
	Message       string     `json:"message,omitempty"`
}

func (b verifyBody) outcome() *core.VerificationOutcome {
	verified := false
	for _, flag := range []*bool{b.Verified, b.Success, b.Authenticated} {
		if flag != nil && *flag {
			verified = true
			break
		}
	}
	token := b.SSOToken
	if token == "" {
		token = b.Token
	}
	return &core.VerificationOutcome{
		Verified: verified,
		Token:    token,
		User:     b.User,
		Message:  b.Message,
	}
}

// RegistrationChallenge implements ports.Gateway.
func (g *HTTPGateway) RegistrationChallenge(ctx context.Context, req core.RegistrationRequest) (*core.RegistrationChallenge, error) {
	var challenge core.RegistrationChallenge
	if err := g.post(ctx, "/register/challenge/", req, &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// VerifyRegistration implements ports.Gateway.
func (g *HTTPGateway) VerifyRegistration(ctx context.Context, proof core.RegistrationProof) (*core.VerificationOutcome, error) {
	var body verifyBody
	if err := g.post(ctx, "/register/verify/", proof, &body); err != nil {
		return nil, err
	}
	return body.outcome(), nil
}

// AuthenticationChallenge implements ports.Gateway. An empty username is
// omitted from the request body, which asks the server for a
// discoverable-credential challenge.
func (g *HTTPGateway) AuthenticationChallenge(ctx context.Context, username string) (*core.AuthenticationChallenge, error) {
	req := struct {
		Username string `json:"username,omitempty"`
	}{Username: username}

	var challenge core.AuthenticationChallenge
	if err := g.post(ctx, "/login/challenge/", req, &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// VerifyAuthentication implements ports.Gateway.
func (g *HTTPGateway) VerifyAuthentication(ctx context.Context, proof core.AuthenticationProof) (*core.VerificationOutcome, error) {
	var body verifyBody
	if err := g.post(ctx, "/login/verify/", proof, &body); err != nil {
		return nil, err
	}
	return body.outcome(), nil
}

// VerifyToken implements ports.Gateway. An invalid token is a valid
// response, not an error.
func (g *HTTPGateway) VerifyToken(ctx context.Context, token string) (*core.TokenVerification, error) {
	req := struct {
		Token string `json:"token"`
	}{Token: token}

	var verification core.TokenVerification
	if err := g.post(ctx, "/verify-token/", req, &verification); err != nil {
		return nil, err
	}
	return &verification, nil
}

// Profile implements ports.Gateway.
func (g *HTTPGateway) Profile(ctx context.Context, token string) (*core.Profile, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/profile/", nil)
	if err != nil {
		return nil, core.NewCeremonyError(core.KindTransport, "", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	var profile core.Profile
	if err := g.do(httpReq, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ClearPendingChallenges implements ports.Gateway.
func (g *HTTPGateway) ClearPendingChallenges(ctx context.Context, username string) (*core.MaintenanceResult, error) {
	req := struct {
		Username string `json:"username"`
	}{Username: username}

	var result core.MaintenanceResult
	if err := g.post(ctx, "/auth/clear-challenges/", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.NewCeremonyError(core.KindTransport, "", fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return core.NewCeremonyError(core.KindTransport, "", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return g.do(httpReq, out)
}

func (g *HTTPGateway) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return core.NewCeremonyError(core.KindTransport, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.NewCeremonyError(core.KindTransport, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return g.classifyFailure(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return core.NewCeremonyError(core.KindTransport, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyFailure turns a non-2xx response into a classified error. The
// stale-challenge conflict is distinguished because it has a dedicated
// recovery path.
func (g *HTTPGateway) classifyFailure(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	message := body.Error
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}

	if body.Code == staleChallengeCode || isStaleChallengeMessage(body.Error) {
		return core.NewCeremonyError(core.KindStaleChallenge, message, nil)
	}
	if status >= 400 && status < 500 {
		return core.NewCeremonyError(core.KindServerRejected, message, nil)
	}
	return core.NewCeremonyError(core.KindTransport, message, nil)
}

func isStaleChallengeMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "multiple") && strings.Contains(lower, "attempts")
}
