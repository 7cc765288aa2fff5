package controller

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/features/users/auth/dto"
	"lurnex_backend/internals/features/users/auth/service"
	helper "lurnex_backend/internals/helpers"
)

// Locals written by the auth middleware and read here.
const (
	LocalAccessToken = "access_token"
	LocalTokenExp    = "token_exp"
)

type AuthController struct {
	Service  *service.AuthService
	Validate *validator.Validate
}

func NewAuthController(svc *service.AuthService, v *validator.Validate) *AuthController {
	if v == nil {
		v = validator.New()
	}
	return &AuthController{Service: svc, Validate: v}
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := helper.BindJSON(c, ac.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	res, err := ac.Service.Login(c.UserContext(), req.Email, req.Password, req.Role)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "Login successful", dto.LoginResponse{
		Token:               res.Token,
		ExpiresAt:           res.ExpiresAt,
		IsTemporaryPassword: res.Account.IsTemporaryPassword,
		User:                dto.NewAccountResponse(&res.Account),
	})
}

// POST /api/auth/register-student
func (ac *AuthController) RegisterStudent(c *fiber.Ctx) error {
	var req dto.RegisterStudentRequest
	if err := helper.BindJSON(c, ac.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	acc, err := ac.Service.RegisterStudent(c.UserContext(), service.RegisterStudentInput{
		Name:   req.Name,
		Email:  req.Email,
		Mobile: req.Mobile,
		Course: req.Course,
		Grade:  req.Grade,
		School: req.School,
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Registration received, awaiting approval", dto.NewAccountResponse(acc))
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(LocalAccessToken).(string)
	exp, _ := c.Locals(LocalTokenExp).(time.Time)
	if err := ac.Service.Logout(c.UserContext(), token, exp); err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "Logged out", nil)
}

// POST /api/auth/change-password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.ChangePasswordRequest
	if err := helper.BindJSON(c, ac.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	if err := ac.Service.ChangePassword(c.UserContext(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Password changed", nil)
}

// GET /api/users/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	acc, err := ac.Service.Me(c.UserContext(), uid)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewAccountResponse(acc))
}

// PATCH /api/users/me
func (ac *AuthController) UpdateMe(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.UpdateProfileRequest
	if err := helper.BindJSON(c, ac.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	acc, err := ac.Service.UpdateMe(c.UserContext(), uid, service.ProfileUpdate{
		Name:   req.Name,
		Mobile: req.Mobile,
		Course: req.Course,
		Grade:  req.Grade,
		School: req.School,
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Profile updated", dto.NewAccountResponse(acc))
}
