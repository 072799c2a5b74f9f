package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is a scripted identity service.
type fakeService struct {
	authCalls atomic.Int32
	roleCalls atomic.Int32

	authStatus  int
	authBody    string
	roleStatus  []int // per attempt; last value repeats
	roleBody    string
	lastAuthReq map[string]any
	lastBearer  string
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls.Add(1)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.lastAuthReq = body

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.authStatus)
		_, _ = w.Write([]byte(f.authBody))
	})
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := int(f.roleCalls.Add(1)) - 1
		f.lastBearer = r.Header.Get("Authorization")

		status := http.StatusOK
		if len(f.roleStatus) > 0 {
			status = f.roleStatus[min(n, len(f.roleStatus)-1)]
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(f.roleBody))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeService) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithTimeout(2*time.Second), WithRoleRetryWait(time.Millisecond, 5*time.Millisecond))
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("SendsLocalStrategyOnce", func(t *testing.T) {
		f := &fakeService{authStatus: http.StatusCreated, authBody: `{"accessToken":"tok","account":{"userId":"u-42"}}`}
		c := newTestClient(t, f)

		res, err := c.Authenticate(ctx, "alice", "s3cret")
		require.NoError(t, err)

		assert.True(t, res.OK)
		assert.Equal(t, "u-42", res.UserID)
		assert.Equal(t, "tok", res.AccessToken)
		assert.Equal(t, int32(1), f.authCalls.Load())
		assert.Equal(t, map[string]any{
			"strategy":      "local",
			"username":      "alice",
			"password":      "s3cret",
			"privateDevice": true,
		}, f.lastAuthReq)
	})

	t.Run("MissingTokenIsDecline", func(t *testing.T) {
		f := &fakeService{authStatus: http.StatusOK, authBody: `{"message":"nope"}`}
		res, err := newTestClient(t, f).Authenticate(ctx, "alice", "bad")
		require.NoError(t, err)
		assert.False(t, res.OK)
	})

	t.Run("UnauthorizedIsDecline", func(t *testing.T) {
		f := &fakeService{authStatus: http.StatusUnauthorized, authBody: `{"name":"NotAuthenticated"}`}
		res, err := newTestClient(t, f).Authenticate(ctx, "alice", "bad")
		require.NoError(t, err)
		assert.False(t, res.OK)
	})

	t.Run("ServerErrorIsNotRetried", func(t *testing.T) {
		f := &fakeService{authStatus: http.StatusBadGateway, authBody: "upstream down"}
		_, err := newTestClient(t, f).Authenticate(ctx, "alice", "pw")

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
		assert.Contains(t, err.Error(), "upstream down")
		assert.Equal(t, int32(1), f.authCalls.Load())
	})

	t.Run("ForbiddenIsDecline", func(t *testing.T) {
		f := &fakeService{authStatus: http.StatusForbidden}
		res, err := newTestClient(t, f).Authenticate(ctx, "alice", "bad")
		require.NoError(t, err)
		assert.False(t, res.OK)
	})

	for _, status := range []int{
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusRequestTimeout,
		http.StatusUnsupportedMediaType,
		http.StatusTooManyRequests,
	} {
		t.Run(http.StatusText(status)+"IsServiceError", func(t *testing.T) {
			f := &fakeService{authStatus: status, authBody: "<html>nope</html>"}
			res, err := newTestClient(t, f).Authenticate(ctx, "alice", "pw")
			assert.Nil(t, res)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, status, svcErr.StatusCode)
		})
	}

	t.Run("WrongBaseURLIsServiceError", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		_, err := New(srv.URL).Authenticate(ctx, "alice", "pw")
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		f := &fakeService{authStatus: http.StatusOK, authBody: `{"accessToken":`}
		_, err := newTestClient(t, f).Authenticate(ctx, "alice", "pw")
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url).Authenticate(ctx, "alice", "pw")
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.NotNil(t, errors.Unwrap(err))
	})

	t.Run("UserIDFromTokenClaims", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"accountId": "acc-1", "sub": "ignored"})
		f := &fakeService{authStatus: http.StatusCreated, authBody: `{"accessToken":"` + tok + `"}`}

		res, err := newTestClient(t, f).Authenticate(ctx, "alice", "pw")
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "acc-1", res.UserID)
	})

	t.Run("TokenWithoutIDIsDecline", func(t *testing.T) {
		f := &fakeService{authStatus: http.StatusCreated, authBody: `{"accessToken":"opaque"}`}
		res, err := newTestClient(t, f).Authenticate(ctx, "alice", "pw")
		require.NoError(t, err)
		assert.False(t, res.OK)
	})
}

func TestLoadRoles(t *testing.T) {
	ctx := context.Background()
	authed := &AuthResult{OK: true, UserID: "u-42", AccessToken: "tok"}

	t.Run("StringAndObjectRoles", func(t *testing.T) {
		f := &fakeService{roleBody: `{"roles":["student",{"_id":"r2","name":"teacher"},{"_id":"r3"}]}`}
		roles, err := newTestClient(t, f).LoadRoles(ctx, authed)
		require.NoError(t, err)

		assert.Equal(t, []string{"student", "teacher", "r3"}, roles)
		assert.Equal(t, "Bearer tok", f.lastBearer)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		f := &fakeService{
			roleStatus: []int{http.StatusServiceUnavailable, http.StatusOK},
			roleBody:   `{"roles":["student"]}`,
		}
		roles, err := newTestClient(t, f).LoadRoles(ctx, authed)
		require.NoError(t, err)
		assert.Equal(t, []string{"student"}, roles)
		assert.Equal(t, int32(2), f.roleCalls.Load())
	})

	t.Run("GivesUp", func(t *testing.T) {
		f := &fakeService{roleStatus: []int{http.StatusInternalServerError}}
		c := newTestClient(t, f)
		_, err := c.LoadRoles(ctx, authed)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, int32(DefaultRoleRetries+1), f.roleCalls.Load())
	})

	t.Run("ForbiddenNotRetried", func(t *testing.T) {
		f := &fakeService{roleStatus: []int{http.StatusForbidden}}
		_, err := newTestClient(t, f).LoadRoles(ctx, authed)
		require.Error(t, err)
		assert.Equal(t, int32(1), f.roleCalls.Load())
	})

	t.Run("RequiresAuthenticatedResult", func(t *testing.T) {
		f := &fakeService{}
		_, err := newTestClient(t, f).LoadRoles(ctx, &AuthResult{})
		require.Error(t, err)
		assert.Zero(t, f.roleCalls.Load())
	})
}

func TestUserIDFromToken(t *testing.T) {
	assert.Equal(t, "u-1", userIDFromToken(signedToken(t, jwt.MapClaims{"userId": "u-1", "accountId": "a-1"})))
	assert.Equal(t, "s-1", userIDFromToken(signedToken(t, jwt.MapClaims{"sub": "s-1"})))
	assert.Equal(t, "17", userIDFromToken(signedToken(t, jwt.MapClaims{"userId": 17})))
	assert.Empty(t, userIDFromToken("not-a-jwt"))
}
