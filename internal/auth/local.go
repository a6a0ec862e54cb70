package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/model"
	"github.com/jinxovich/mosprom-sracaton/internal/utilities"
)

// LocalAuthHandler holds DB reference and token configuration for handler methods.
type LocalAuthHandler struct {
	DB     *database.DBinstanceStruct
	Tokens *TokenIssuer
}

// NewLocalAuthHandler creates a new instance of LocalAuthHandler with the provided database connection.
func NewLocalAuthHandler(db *database.DBinstanceStruct, tokens *TokenIssuer) *LocalAuthHandler {
	return &LocalAuthHandler{
		DB:     db,
		Tokens: tokens,
	}
}

type registerInfo struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type loginInfo struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	User        model.PublicUser `json:"user"`
}

type registerResponse struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// RegisterHandler handles account self-registration.
// HR and university accounts are created inactive and wait for admin moderation;
// applicant accounts are active immediately and get a token right away.
// @Summary Register a new account with email, password and role
// @Description Role can be only 'hr', 'university' or 'applicant'. Password must be 8 characters or longer
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body registerInfo true "Registration info"
// @Success 201 {object} registerResponse "Account created"
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 409 {object} utilities.ErrorResponse "Email already registered"
// @Failure 500 {object} utilities.ErrorResponse "Database or password hashing error"
// @Router /auth/register [post]
func (lh *LocalAuthHandler) RegisterHandler(c *gin.Context) {
	var info registerInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email, password, and role must be provided",
		})
		return
	}

	if !utilities.Contains(model.SelfRegisterRoles, info.Role) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Role '%s' not allowed", info.Role),
		})
		return
	}

	if len(info.Password) < 8 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Password should longer or equal to 8 characters",
		})
		return
	}

	var existing model.User
	err := lh.DB.Where("email = ?", info.Email).First(&existing).Error

	switch {
	case err == nil:
		c.JSON(http.StatusConflict, utilities.ErrorResponse{
			Error: "Email already registered",
		})
		return

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Do nothing

	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	hashedPassword, err := utilities.HashPassword(info.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed hash password: %s", err.Error()),
		})
		return
	}

	user := model.User{
		Email:    info.Email,
		Password: hashedPassword,
		Role:     info.Role,
		// Applicants skip moderation, everyone else waits for an admin
		IsActive: info.Role == model.RoleApplicant,
	}

	if err := lh.DB.Create(&user).Error; err != nil {
		// The unique index on email backs up the check above under concurrent registration
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, utilities.ErrorResponse{
				Error: "Email already registered",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create user: %s", err.Error()),
		})
		return
	}

	if user.Role != model.RoleApplicant {
		c.JSON(http.StatusCreated, registerResponse{
			User:    user,
			Message: "Account is pending moderation",
		})
		return
	}

	accessToken, err := lh.Tokens.Generate(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate access token: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		User:        user,
		AccessToken: accessToken,
	})
}

// LoginHandler exchanges email and password for an access token.
// The activation state is reported before the password is verified, so a
// rejected or pending account answers the same way for any password. This is
// deliberate: owners of moderated accounts learn their status without logging
// in, and a correct password is never confirmed for a frozen account.
// @Summary Login with email and password
// @Description Email must belong to an active account and password must match
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body loginInfo true "Credentials for login"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 401 {object} utilities.ErrorResponse "Email not exist or password incorrect"
// @Failure 403 {object} utilities.ErrorResponse "Account pending or rejected"
// @Failure 500 {object} utilities.ErrorResponse "Database or password hashing error"
// @Router /auth/token [post]
func (lh *LocalAuthHandler) LoginHandler(c *gin.Context) {
	var info loginInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email or password is not provided",
		})
		return
	}

	var user model.User
	err := lh.DB.Where("email = ?", info.Email).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Email or password is incorrect",
		})
		return

	case err == nil:
		// Do nothing

	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	if !user.IsActive {
		if user.RejectionReason != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":            "Account rejected",
				"rejection_reason": *user.RejectionReason,
			})
			return
		}
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "Account is pending moderation",
		})
		return
	}

	if user.Password == "" || !utilities.VerifyPassword(info.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Email or password is incorrect",
		})
		return
	}

	accessToken, err := lh.Tokens.Generate(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate access token: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        user.Public(),
	})
}
