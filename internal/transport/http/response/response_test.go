package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	pkgctx "github.com/baechuer/real-time-ressys/services/user-service/internal/pkg/context"
)

type decodeDst struct {
	A string `json:"a"`
	B int    `json:"b"`
}

func newReqWithBody(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"single object", `{"a":"x","b":1}`, true},
		{"unknown field", `{"a":"x","c":1}`, false},
		{"trailing value", `{"a":"x"}{"a":"y"}`, false},
		{"malformed", `{"a":`, false},
		{"empty", ``, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dst decodeDst
			err := DecodeJSON(httptest.NewRecorder(), newReqWithBody(tc.body), &dst)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			assert.True(t, domain.Is(err, domain.CodeInvalidJSON), "got %v", err)
		})
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrResetTokenInvalid(), http.StatusBadRequest, domain.CodeResetTokenInvalid},
		{domain.ErrUserNotFound(), http.StatusNotFound, domain.CodeUserNotFound},
		{domain.ErrEmailNotFound(), http.StatusNotFound, domain.CodeEmailNotFound},
		{domain.ErrTokenMissing(), http.StatusUnauthorized, "token_missing"},
		{domain.ErrRateLimited("forgot_password"), http.StatusTooManyRequests, "rate_limited"},
		{domain.ErrDBUnavailable(errors.New("x")), http.StatusServiceUnavailable, "db_unavailable"},
		{domain.ErrHashFailed(errors.New("x")), http.StatusInternalServerError, "hash_failed"},
		{errors.New("plain"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req = req.WithContext(pkgctx.WithRequestID(context.Background(), "rid-7"))
		rr := httptest.NewRecorder()

		WriteError(rr, req, tc.err)

		assert.Equal(t, tc.status, rr.Code)
		var body ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Error.Code)
		assert.Equal(t, "rid-7", body.Error.RequestID)
	}
}

func TestWriteError_DoesNotLeakCause(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/x", nil), domain.ErrDBUnavailable(errors.New("password=secret")))
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestOK_WrapsData(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]string{"k": "v"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"k":"v"}}`, rr.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
}
