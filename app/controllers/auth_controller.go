package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/taekup/taekup-server/app/repository"
	"github.com/taekup/taekup-server/internal/pkg/env"
	"github.com/taekup/taekup-server/internal/pkg/mail"
	"github.com/taekup/taekup-server/internal/pkg/session"
	"github.com/taekup/taekup-server/internal/pkg/usercontext"
)

// LoginRequest is the credential payload for admin login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates an admin user and establishes a session cookie.
// Invalid credentials and unknown accounts produce the same response so the
// endpoint does not leak which emails exist.
func HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request_body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_credentials")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials")
		}
		return jsonError(c, fiber.StatusInternalServerError, "login_failed")
	}
	if !user.IsActive() || !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed")
	}
	// Fresh session ID on privilege change
	if err := sess.Regenerate(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsSuperAdmin, user.IsSuperAdmin())
	if err := sess.Save(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := userRepo.Update(user); err != nil {
		log.Warnf("failed to stamp last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// HandleLogout destroys the current session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Warnf("session destroy failed: %v", err)
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleMe returns the authenticated admin's context.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "not_authenticated")
	}
	return c.JSON(userCtx)
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword issues a password-reset token and emails the link.
// Always answers 200 so the endpoint cannot be used to enumerate accounts.
func HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request_body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_email")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("forgot-password lookup failed for %s: %v", email, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}

	if err := user.GenerateResetToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "reset_token_failed")
	}
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "reset_token_failed")
	}

	appURL := strings.TrimRight(env.GetEnv("PUBLIC_APP_URL", "http://localhost:3000"), "/")
	subject, body, err := mail.RenderPasswordReset(mail.PasswordResetData{
		Name:     user.Name,
		ResetURL: appURL + "/admin/reset-password?token=" + user.ResetToken,
	})
	if err == nil {
		err = mail.SMTPMailer{}.Send(user.Email, subject, body)
	}
	if err != nil {
		log.Errorf("failed to send password reset mail to %s: %v", user.Email, err)
	}

	return c.JSON(fiber.Map{"ok": true})
}

// ResetPasswordRequest carries the token and new password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleResetPassword consumes a valid reset token and sets a new password.
func HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request_body")
	}
	token := strings.TrimSpace(req.Token)
	if token == "" || len(req.Password) < 8 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_token_or_password")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByResetToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_or_expired_token")
		}
		return jsonError(c, fiber.StatusInternalServerError, "reset_failed")
	}
	if !user.IsResetTokenValid(token) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_or_expired_token")
	}

	if err := user.SetPassword(req.Password); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "reset_failed")
	}
	user.ClearResetToken()
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "reset_failed")
	}

	return c.JSON(fiber.Map{"ok": true})
}
