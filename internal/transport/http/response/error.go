package response

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/logger"
	pkgctx "github.com/baechuer/real-time-ressys/services/user-service/internal/pkg/context"
)

type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

var kindStatus = map[domain.ErrKind]int{
	domain.KindValidation:     http.StatusBadRequest,
	domain.KindAuth:           http.StatusUnauthorized,
	domain.KindForbidden:      http.StatusForbidden,
	domain.KindNotFound:       http.StatusNotFound,
	domain.KindConflict:       http.StatusConflict,
	domain.KindRateLimited:    http.StatusTooManyRequests,
	domain.KindInfrastructure: http.StatusServiceUnavailable,
	domain.KindInternal:       http.StatusInternalServerError,
}

// WriteError renders err as {"error": {...}}. Anything that is not a
// domain.Error becomes a bare 500; causes are logged, never sent.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	payload := ErrorPayload{
		Code:      domain.CodeInternal,
		Message:   "internal error",
		RequestID: pkgctx.GetRequestID(r.Context()),
	}
	status := http.StatusInternalServerError

	if de, ok := domain.As(err); ok {
		payload.Code, payload.Message, payload.Meta = de.Code, de.Message, de.Meta
		if s, known := kindStatus[de.Kind]; known {
			status = s
		}
	}

	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error().Err(err).
			Str("code", payload.Code).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	WriteJSON(w, status, ErrorBody{Error: payload})
}
