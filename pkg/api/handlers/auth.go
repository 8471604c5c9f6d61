package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/auth"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth      *auth.Service
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService, validator: validator.New()}
}

// SignUp godoc
// @Summary Create an account pending email verification
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.SignUpRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req models.SignUpRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.auth.SignUp(ctx, req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Sign in with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse "Email not verified"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, _, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the current token.
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.SignOut(ctx, sess); err != nil {
		return apierrors.Respond(c, err)
	}
	return success(c, "Sessão encerrada.")
}

// Me returns the signed-in user.
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.auth.Me(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// VerifyEmail redeems the link sent after sign-up.
// @Router /auth/verify-email/{token} [get]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.VerifyEmail(ctx, c.Param("token")); err != nil {
		return apierrors.Respond(c, err)
	}
	return success(c, "E-mail verificado. Você já pode entrar.")
}

// ResendVerification sends a new verification link.
// @Router /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req models.LoginRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.ResendVerification(ctx, req.Email, req.Password); err != nil {
		return apierrors.Respond(c, err)
	}
	return success(c, "Enviamos um novo link de verificação para o seu e-mail.")
}

// ForgotPassword emails a reset link. The answer is the same whether or not
// the address has an account.
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.EmailRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.SendPasswordReset(ctx, req.Email); err != nil {
		return apierrors.Respond(c, err)
	}
	return success(c, "Se o e-mail estiver cadastrado, você receberá um link para redefinir a senha.")
}

// ResetPassword sets a new password from a reset token.
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.ResetPassword(ctx, req); err != nil {
		return apierrors.Respond(c, err)
	}
	return success(c, "Senha redefinida.")
}

// ChangePassword replaces the password after re-authenticating.
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req models.ChangePasswordRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.ChangePassword(ctx, sess, req); err != nil {
		return apierrors.Respond(c, err)
	}
	return success(c, "Senha alterada.")
}

// DisableAccount deactivates the account and signs out.
// @Router /auth/account [delete]
func (h *AuthHandler) DisableAccount(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.Disable(ctx, sess); err != nil {
		return apierrors.Respond(c, err)
	}
	return success(c, "Conta desativada.")
}
