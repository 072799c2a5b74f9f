package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/dittodav/internal/telemetry"
)

// role accepts both plain role names and populated role objects.
type role struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func (r *role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.ID = s
		return nil
	}
	type plain role
	return json.Unmarshal(data, (*plain)(r))
}

func (r role) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

type userResponse struct {
	Roles []role `json:"roles"`
}

// LoadRoles fetches the role names of an authenticated account.
func (c *Client) LoadRoles(ctx context.Context, res *AuthResult) ([]string, error) {
	if res == nil || !res.OK {
		return nil, fmt.Errorf("load roles: not authenticated")
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanLoadRoles,
		trace.WithAttributes(telemetry.UserID(res.UserID)))
	defer span.End()

	endpoint := c.baseURL + "/users/" + url.PathEscape(res.UserID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ServiceError{Op: "load roles", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)

	resp, err := c.roleClient.Do(req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, &ServiceError{Op: "load roles", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ServiceError{Op: "load roles", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 400 {
		svcErr := &ServiceError{Op: "load roles", StatusCode: resp.StatusCode, Message: snippet(body)}
		telemetry.RecordError(ctx, svcErr)
		return nil, svcErr
	}

	var ur userResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, &ServiceError{Op: "load roles", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	roles := make([]string, 0, len(ur.Roles))
	for _, r := range ur.Roles {
		if name := r.String(); name != "" {
			roles = append(roles, name)
		}
	}
	span.SetAttributes(telemetry.RoleCount(len(roles)))
	return roles, nil
}
