package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/resource"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

func sessionBody(s services.Session) resource.Map {
	return resource.Map{
		"user":          resources.User(s.User),
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}

func (a *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	s, err := a.service.Register(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.CreatedWithMessage("User registered successfully", sessionBody(s))
}

func (a *AuthController) Login(c *ctx.Context) {
	var in struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	s, err := a.service.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Login successful", sessionBody(s))
}

func (a *AuthController) Refresh(c *ctx.Context) {
	var in struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	token, err := a.service.Refresh(c.Context(), in.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Map{"access_token": token})
}

func (a *AuthController) Logout(c *ctx.Context) {
	claims, ok := c.Claims()
	if !ok {
		c.Unauthorized()
		return
	}
	var in services.LogoutInput
	if _, err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, bind.ErrEmptyBody) {
		c.Error(http.StatusBadRequest, err.Error())
		return
	}
	if err := a.service.Logout(c.Context(), claims, in.RefreshToken); err != nil {
		fail(c, err)
		return
	}
	c.Message("Successfully logged out", nil)
}

func (a *AuthController) Me(c *ctx.Context) {
	u, err := a.service.User(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.User(u))
}

func (a *AuthController) UpdateMe(c *ctx.Context) {
	var in services.ProfileInput
	if !c.BindJSON(&in) {
		return
	}
	u, err := a.service.UpdateProfile(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Profile updated", resources.User(u))
}

// Users lists accounts for admins.
func (a *AuthController) Users(c *ctx.Context) {
	page, perPage := c.Page(20)
	users, p, err := a.service.ListUsers(c.Context(), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated("users", resource.Many(resources.User, users), p)
}

// User shows one account to its owner or an admin.
func (a *AuthController) User(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if id != c.UserID() && !c.IsAdmin() {
		c.Error(http.StatusForbidden, "Access denied")
		return
	}
	u, err := a.service.User(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.User(u))
}

// OIDC exchanges an external provider's ID token for storefront tokens.
func (a *AuthController) OIDC(c *ctx.Context) {
	var in struct {
		IDToken string `json:"id_token" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	s, err := a.service.SignInWithOIDC(c.Context(), in.IDToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Login successful", sessionBody(s))
}
