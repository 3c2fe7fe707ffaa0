package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signupRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Role           string `json:"role" validate:"required,oneof=patient doctor"`
	Phone          string `json:"phone,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=patient doctor admin"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

// Signup creates a patient or doctor account and signs it in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Router       /v1/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		Role:           domain.Role(req.Role),
		Phone:          req.Phone,
		Specialization: req.Specialization,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{Token: res.Token, User: res.User.Public()})
}

// Login checks email, password and the role selected on the form.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and role"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: res.Token, User: res.User.Public()})
}

// Logout clears the session holder.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorBody
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the user in the session holder, or 204 when nobody is
// signed in.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.PublicUser
// @Success      204
// @Router       /v1/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	user, err := h.authService.CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	if user == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, user.Public())
}
