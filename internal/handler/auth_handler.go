package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"health-reminder-api/internal/auth"
	"health-reminder-api/internal/mail"
	"health-reminder-api/internal/model"
)

const (
	msgForgotPassword = "If an account with this email exists, a password reset link has been sent."
	msgResetDone      = "Password has been reset successfully."
	msgResetInvalid   = "Invalid or expired password reset token."
	msgBadLogin       = "Incorrect email or password"
	msgInactive       = "Inactive user"
	msgDuplicateUser  = "The user with this email already exists in the system."
)

// Login is the OAuth2 password flow: form fields username and password.
func (h *Handler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("username"))
	pw := c.PostForm("password")

	u, err := h.store.UserByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		h.fail(c, err, "User")
		return
	}
	if u == nil || !auth.CheckPassword(u.HashedPassword, pw) {
		c.Header("WWW-Authenticate", "Bearer")
		abort(c, http.StatusUnauthorized, msgBadLogin)
		return
	}
	if !u.IsActive {
		abort(c, http.StatusBadRequest, msgInactive)
		return
	}

	tok, err := auth.MakeToken(u.ID, h.secret, h.ttl)
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok, "token_type": "bearer"})
}

type registerIn struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	FullName *string     `json:"full_name"`
	DOB      *model.Date `json:"dob"`
	Address  *string     `json:"address"`
}

func (h *Handler) Register(c *gin.Context) {
	var in registerIn
	if !bind(c, &in) {
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	u := &model.User{
		Email:          strings.TrimSpace(in.Email),
		FullName:       in.FullName,
		DOB:            in.DOB,
		Address:        in.Address,
		HashedPassword: hash,
		IsActive:       true,
	}
	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			abort(c, http.StatusBadRequest, msgDuplicateUser)
			return
		}
		h.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, user(c))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var p model.UserPatch
	if !bind(c, &p) {
		return
	}
	u, err := h.store.UpdateUser(c.Request.Context(), user(c).ID, p)
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}

type forgotIn struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword answers the same way whether or not the account exists;
// lookup and delivery problems are only logged.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in forgotIn
	if !bind(c, &in) {
		return
	}
	h.sendResetLink(c, strings.TrimSpace(in.Email))
	c.JSON(http.StatusOK, gin.H{"msg": msgForgotPassword})
}

func (h *Handler) sendResetLink(c *gin.Context, email string) {
	ctx := c.Request.Context()
	log := h.log.With().Str("action", "forgot-password").Logger()

	u, err := h.store.UserByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		log.Info().Msg("password reset requested for unknown email")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("look up user")
		return
	}

	raw, hash, err := auth.GenerateResetToken()
	if err != nil {
		log.Error().Err(err).Msg("generate reset token")
		return
	}
	if err := h.store.SetResetToken(ctx, u.ID, hash, h.now().Add(auth.ResetTokenTTL)); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("store reset token")
		return
	}

	link := strings.TrimRight(h.frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(raw)
	msg, err := mail.PasswordReset(u.Email, link)
	if err != nil {
		log.Error().Err(err).Msg("render reset email")
		return
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("send reset email")
	}
}

type resetIn struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var in resetIn
	if !bind(c, &in) {
		return
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	err = h.store.ResetPassword(c.Request.Context(), auth.HashResetToken(in.Token), hash, h.now())
	if errors.Is(err, model.ErrInvalidToken) {
		abort(c, http.StatusBadRequest, msgResetInvalid)
		return
	}
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msgResetDone})
}
