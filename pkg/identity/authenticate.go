package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/dittodav/internal/logger"
	"github.com/marmos91/dittodav/internal/telemetry"
)

// AuthResult is the outcome of a login attempt the service answered.
type AuthResult struct {
	// OK is true iff the service issued an access token for a known account.
	OK          bool
	UserID      string
	AccessToken string
}

type authRequest struct {
	Strategy      string `json:"strategy"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	PrivateDevice bool   `json:"privateDevice"`
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
	Account     struct {
		UserID string `json:"userId"`
	} `json:"account"`
}

// Authenticate performs a password login for username.
//
// A refused login (401, 403 or no token) yields a result with OK false and
// a nil error. Anything else the service could not answer yields a
// *ServiceError.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanAuthenticate,
		trace.WithAttributes(telemetry.Username(username)))
	defer span.End()

	payload, err := json.Marshal(authRequest{
		Strategy:      "local",
		Username:      username,
		Password:      password,
		PrivateDevice: true,
	})
	if err != nil {
		return nil, &ServiceError{Op: "authenticate", Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authentication", bytes.NewReader(payload))
	if err != nil {
		return nil, &ServiceError{Op: "authenticate", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, &ServiceError{Op: "authenticate", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, &ServiceError{Op: "authenticate", StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		if isDecline(resp.StatusCode) {
			logger.DebugCtx(ctx, "Identity service declined login",
				logger.Username(username), logger.KeyStatus, resp.StatusCode)
			return &AuthResult{}, nil
		}
		svcErr := &ServiceError{Op: "authenticate", StatusCode: resp.StatusCode, Message: snippet(body)}
		telemetry.RecordError(ctx, svcErr)
		return nil, svcErr
	}

	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, &ServiceError{Op: "authenticate", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if ar.AccessToken == "" {
		return &AuthResult{}, nil
	}

	userID := ar.Account.UserID
	if userID == "" {
		userID = userIDFromToken(ar.AccessToken)
	}
	if userID == "" {
		logger.WarnCtx(ctx, "Access token carries no account id, treating login as declined",
			logger.Username(username))
		return &AuthResult{}, nil
	}

	span.SetAttributes(telemetry.UserID(userID))
	return &AuthResult{OK: true, UserID: userID, AccessToken: ar.AccessToken}, nil
}
