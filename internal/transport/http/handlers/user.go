package http_handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/logger"
	appCtx "github.com/baechuer/real-time-ressys/services/user-service/internal/pkg/context"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/transport/http/response"
)

type UserService interface {
	CurrentUser(ctx context.Context, username string) (domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, token string) (domain.User, error)
	ResetPassword(ctx context.Context, in user.ResetPasswordInput) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Current handles GET /api/users/current
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	username, ok := appCtx.GetSubject(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	u, err := h.svc.CurrentUser(r.Context(), username)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(u))
}

// ForgotPassword handles POST /api/users/forgot-password
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("password_reset_link_sent")
	response.NoContent(w)
}

// CheckResetToken handles GET /api/users/check-reset-password-token?token=...
func (h *UserHandler) CheckResetToken(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.CheckResetToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.TokenCheckView{Valid: true, Username: u.Username})
}

// ResetPassword handles POST /api/users/reset-password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	err := h.svc.ResetPassword(r.Context(), user.ResetPasswordInput{
		Token:       req.Token,
		NewPassword: req.Password,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("password_reset_completed")
	response.NoContent(w)
}
