package dto

import "strings"

// -------- Password recovery --------

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	return Validate(r)
}

// ResetPasswordRequest mirrors the token/password pair posted by the reset page.
// Token and password presence are left to the workflow, which checks the token
// first so any bad token reads as reset_token_invalid.
// bcrypt ignores bytes past 72, so longer passwords are rejected.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password" validate:"max=72"`
}

func (r *ResetPasswordRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	return Validate(r)
}
