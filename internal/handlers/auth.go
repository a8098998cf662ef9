package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"linksnap/internal/models"
	"linksnap/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type tokenClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"` // can be email or username
	Password string `json:"password" binding:"required"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusUnprocessableEntity, nil, err.Error())
		return
	}

	var existing models.User
	if err := h.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error; err == nil {
		respond(c, http.StatusConflict, nil, "username or email already exists")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err, "register")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		APIKey:       utils.GenerateAPIKey(),
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.fail(c, err, "register")
		return
	}

	h.audit.LogAction(&user.ID, "REGISTER", user.Username, nil, c.ClientIP())
	respond(c, http.StatusCreated, gin.H{"id": user.ID, "username": user.Username, "api_key": user.APIKey}, "user created")
}

func (h *Handler) LoginUser(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusUnprocessableEntity, nil, err.Error())
		return
	}

	var user models.User
	err := h.db.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond(c, http.StatusUnauthorized, nil, "invalid credentials")
		} else {
			h.fail(c, err, "login")
		}
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		respond(c, http.StatusUnauthorized, nil, "invalid credentials")
		return
	}

	if err := h.issueTokenPair(c, user.ID); err != nil {
		h.fail(c, err, "login")
		return
	}

	h.audit.LogAction(&user.ID, "LOGIN", user.Username, nil, c.ClientIP())
	respond(c, http.StatusOK, gin.H{"id": user.ID, "username": user.Username}, "logged in")
}

// RefreshToken rotates the cookie pair off a valid refresh token.
func (h *Handler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		respond(c, http.StatusUnauthorized, nil, "missing refresh token")
		return
	}

	userID, ok := h.userFromToken(token, tokenTypeRefresh)
	if !ok {
		respond(c, http.StatusUnauthorized, nil, "invalid refresh token")
		return
	}

	if err := h.issueTokenPair(c, userID); err != nil {
		h.fail(c, err, "refresh")
		return
	}
	respond(c, http.StatusOK, nil, "token refreshed")
}

func (h *Handler) LogoutUser(c *gin.Context) {
	c.SetCookie(accessCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	respond(c, http.StatusOK, nil, "logged out")
}

func (h *Handler) issueTokenPair(c *gin.Context, userID uint) error {
	access, err := h.signToken(userID, tokenTypeAccess, accessTTL)
	if err != nil {
		return err
	}
	refresh, err := h.signToken(userID, tokenTypeRefresh, refreshTTL)
	if err != nil {
		return err
	}

	secure := h.cfg.AppEnv == "production"
	c.SetCookie(accessCookie, access, int(accessTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(refreshCookie, refresh, int(refreshTTL.Seconds()), "/", "", secure, true)
	return nil
}

func (h *Handler) signToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *Handler) userFromToken(raw, wantType string) (uint, bool) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid || claims.TokenType != wantType {
		return 0, false
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
