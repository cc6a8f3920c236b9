package handlers

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"time"

	"github.com/docuchat/backend/internal/auth"
	"github.com/docuchat/backend/internal/chatroom"
	"github.com/docuchat/backend/internal/common"
	"github.com/docuchat/backend/internal/email"
	"github.com/docuchat/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 60 * 24 * time.Hour
	captchaTTL      = 10 * time.Minute

	refreshCookieName = "refresh_token"
)

func randomCaptcha6() (string, error) {
	const digits = "0123456789"
	out := make([]byte, 6)
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		out[i] = digits[n.Int64()]
	}
	return string(out), nil
}

type sendCaptchaReq struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) SendCaptcha(c *gin.Context) {
	var req sendCaptchaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	code, err := randomCaptcha6()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20004, "failed to generate captcha")
		return
	}
	if err := h.Redis.SetCaptcha(c.Request.Context(), req.Email, code, captchaTTL); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return
	}

	go func(to, code string) {
		_ = email.SendText(h.SMTPSetting, to, "Your DocuChat verification code",
			"Your verification code is: "+code+"\n\nIt expires in 10 minutes.\n")
	}(req.Email, code)

	common.OK(c, gin.H{})
}

type signupReq struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	OrganizationName string `json:"organization_name" binding:"required"`
	Captcha          string `json:"captcha" binding:"required"`
}

// Signup creates the user together with a fresh organization and makes the
// user its admin.
func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	code, err := h.Redis.GetCaptcha(c.Request.Context(), req.Email)
	if err != nil {
		if err == redis.Nil {
			common.Fail(c, http.StatusBadRequest, 10020, "captcha expired or not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return
	}
	if code != req.Captcha {
		common.Fail(c, http.StatusBadRequest, 10021, "invalid captcha")
		return
	}
	_ = h.Redis.DeleteCaptcha(c.Request.Context(), req.Email)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	orgID, err := chatroom.NewID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20004, "failed to generate id")
		return
	}

	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Organization: models.Organization{
			ID:           orgID,
			Name:         req.OrganizationName,
			Email:        req.Email,
			Subscription: models.PlanSolo,
		},
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		common.Fail(c, http.StatusConflict, 10003, "user or organization already exists")
		return
	}

	go func(name, orgName, to string) {
		_ = email.SendText(h.SMTPSetting, to, "Welcome to DocuChat", email.OnboardingBody(name, orgName))
	}(user.Name, req.OrganizationName, user.Email)

	common.OK(c, gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"organization": req.OrganizationName,
	})
}

type signinReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Signin(c *gin.Context) {
	var req signinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).
		Where("email = ?", req.Email).
		First(&user).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "user not found")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusForbidden, 10011, "wrong credentials provided")
		return
	}

	accessToken, err := auth.SignJWT(user.ID, user.OrganizationID, string(user.Role), h.Cfg.JWTSecret, accessTokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	refreshToken, err := auth.SignJWT(user.ID, user.OrganizationID, string(user.Role), h.Cfg.JWTSecret, refreshTokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(refreshCookieName, refreshToken, int(refreshTokenTTL.Seconds()), "/", "", true, true)

	common.OK(c, gin.H{
		"access_token": accessToken,
		"id":           user.ID,
		"role":         user.Role,
	})
}

func (h *Handler) Signout(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", true, true)
	common.OK(c, gin.H{})
}

func (h *Handler) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookieName)
	if err != nil || token == "" {
		common.Fail(c, http.StatusUnauthorized, 40102, "no refresh token")
		return
	}

	claims, err := auth.ParseJWT(token, h.Cfg.JWTSecret)
	if err != nil {
		common.Fail(c, http.StatusUnauthorized, 40101, "invalid or expired token")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
		common.Fail(c, http.StatusForbidden, 10012, "access denied")
		return
	}

	accessToken, err := auth.SignJWT(user.ID, user.OrganizationID, string(user.Role), h.Cfg.JWTSecret, accessTokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{"access_token": accessToken, "role": user.Role})
}

type forgotPasswordReq struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).
		Where("email = ?", req.Email).
		First(&user).Error; err != nil {
		// do not reveal whether the address exists
		common.OK(c, gin.H{})
		return
	}

	token := uuid.NewString()
	if err := h.Redis.SetResetToken(c.Request.Context(), token, user.ID, models.PasswordResetTokenTTL); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return
	}

	go func(to, name, token string) {
		_ = email.SendText(h.SMTPSetting, to, "Reset your DocuChat password", email.PasswordResetBody(name, token))
	}(user.Email, user.Name, token)

	common.OK(c, gin.H{})
}

type resetPasswordReq struct {
	Token                string `json:"token" binding:"required"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Password != req.PasswordConfirmation {
		common.Fail(c, http.StatusBadRequest, 10013, "password and confirmation must match")
		return
	}

	userID, err := h.Redis.GetResetToken(c.Request.Context(), req.Token)
	if err != nil {
		if err == redis.Nil {
			common.Fail(c, http.StatusForbidden, 10014, "invalid or expired reset token")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusForbidden, 10014, "invalid or expired reset token")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	_ = h.Redis.DeleteResetToken(c.Request.Context(), req.Token)

	common.OK(c, gin.H{})
}
