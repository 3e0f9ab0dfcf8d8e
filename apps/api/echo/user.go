package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

type authApi struct {
	svc      user.Service
	validate *validator.Validate
	logger   core.Logger
	conf     *core.Config
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := authApi{
		svc:      opts.UserSvc,
		validate: opts.Validate,
		logger:   opts.Logger,
		conf:     opts.Conf,
	}

	// un-authed endpoints
	// TODO: rate limit `/forgot-password` & `/reset-password`
	g.POST("/register", api.register)
	g.POST("/login", api.login)
	g.POST("/forgot-password", api.forgotPassword)
	g.POST("/reset-password", api.resetPassword)

	// authed endpoints
	g.POST("/token-refresh", api.refreshToken, jwt)
}

// Handlers

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	claims, usr, err := authenticate(ctx.Request().Context(), data.Email, data.Password, api.svc, api.conf)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: &usr})
}

func (api *authApi) forgotPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || core.IsNotFound(err)) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string     `json:"token"`
		User  *user.User `json:"user,omitempty"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func (lr *LoginRequest) Clean() {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
}

func (pr *PasswordResetRequest) Clean() {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
}
