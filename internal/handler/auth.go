package handler

import (
	"net/http"

	"github.com/mtpultz/goal-digger/internal/ctxkeys"
	"github.com/mtpultz/goal-digger/internal/service"
)

type AuthHandler struct {
	responder
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService, debug bool) *AuthHandler {
	return &AuthHandler{
		responder:   responder{debug: debug},
		authService: authService,
	}
}

type authResponse struct {
	Message     string       `json:"message"`
	User        userResource `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, token, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		if isClientError(err) {
			h.fail(w, r, err)
			return
		}
		h.internal(w, r, "An error occurred while creating the user.", err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message:     "User registered successfully.",
		User:        newUserResource(user),
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message:     "Login successful.",
		User:        newUserResource(user),
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		if isClientError(err) {
			h.fail(w, r, err)
			return
		}
		h.internal(w, r, "Unable to send password reset link.", err)
		return
	}

	writeMessage(w, http.StatusOK, "Password reset link sent.")
}

type resetPasswordRequest struct {
	Email                string `json:"email"`
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.authService.ResetPassword(r.Context(), service.ResetPasswordInput{
		Email:                req.Email,
		Token:                req.Token,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password has been reset.")
}

type verifyEmailRequest struct {
	ID   int64  `json:"id"`
	Hash string `json:"hash"`
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	alreadyVerified, err := h.authService.VerifyEmail(r.Context(), req.ID, req.Hash)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if alreadyVerified {
		writeMessage(w, http.StatusOK, "Email already verified.")
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully.")
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	alreadyVerified, err := h.authService.ResendVerification(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if alreadyVerified {
		writeMessage(w, http.StatusOK, "Email already verified.")
		return
	}
	writeMessage(w, http.StatusOK, "Verification email resent.")
}

// CurrentUser returns the authenticated user.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	writeJSON(w, http.StatusOK, newUserResource(user))
}
