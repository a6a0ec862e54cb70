// Package moderation provides the admin endpoints that approve or reject
// user accounts and postings.
package moderation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/model"
	"github.com/jinxovich/mosprom-sracaton/internal/utilities"
)

const (
	minRejectionReasonLen = 10
	maxRejectionReasonLen = 500
)

// ModerationController handles admin moderation endpoints
type ModerationController struct {
	DB *database.DBinstanceStruct
}

// NewModerationController creates a new instance of ModerationController
// with the provided database connection.
func NewModerationController(db *database.DBinstanceStruct) *ModerationController {
	return &ModerationController{DB: db}
}

type rejectRequest struct {
	Reason string `json:"rejection_reason" binding:"required"`
}

// validateReason checks the rejection reason length bounds after trimming.
// Bounds count characters, not bytes, so multibyte reasons are measured fairly.
// Responds with 400 and returns false when the reason does not qualify.
func validateReason(c *gin.Context, reason string) (string, bool) {
	trimmed := strings.TrimSpace(reason)
	length := utf8.RuneCountInString(trimmed)
	if length < minRejectionReasonLen || length > maxRejectionReasonLen {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Rejection reason must be between %d and %d characters",
				minRejectionReasonLen, maxRejectionReasonLen),
		})
		return "", false
	}
	return trimmed, true
}

// PendingUsers lists HR and university accounts waiting for approval.
// Rejected accounts are not pending and do not show up here.
// @Summary List user accounts pending moderation
// @Tags Moderation
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /moderation/users/pending [get]
func (mc *ModerationController) PendingUsers(c *gin.Context) {
	users := []model.User{}
	if err := mc.DB.
		Where("role IN ? AND is_active = false AND rejection_reason IS NULL",
			[]string{model.RoleHR, model.RoleUniversity}).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch pending users: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, users)
}

// ApproveUser activates an account and clears any previous rejection.
// Approving an already active account is a no-op.
// @Summary Approve a user account
// @Tags Moderation
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "ID of the user"
// @Success 200 {object} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /moderation/users/{id}/publish [post]
func (mc *ModerationController) ApproveUser(c *gin.Context) {
	id := c.Param("id")

	user := model.User{}
	if err := mc.DB.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve user: %s", err.Error()),
		})
		return
	}

	user.IsActive = true
	user.RejectionReason = nil
	if err := mc.DB.Model(&user).
		Select("is_active", "rejection_reason").
		Updates(map[string]interface{}{"is_active": true, "rejection_reason": nil}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to approve user: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// RejectUser deactivates an account and records the reason shown at login.
// @Summary Reject a user account with a reason
// @Tags Moderation
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "ID of the user"
// @Param request body rejectRequest true "Rejection reason, 10 to 500 characters"
// @Success 200 {object} model.User
// @Failure 400 {object} utilities.ErrorResponse "Missing or out of bounds reason"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /moderation/users/{id}/reject [post]
func (mc *ModerationController) RejectUser(c *gin.Context) {
	id := c.Param("id")

	request := rejectRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}
	reason, ok := validateReason(c, request.Reason)
	if !ok {
		return
	}

	user := model.User{}
	if err := mc.DB.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve user: %s", err.Error()),
		})
		return
	}

	user.IsActive = false
	user.RejectionReason = &reason
	if err := mc.DB.Model(&user).
		Select("is_active", "rejection_reason").
		Updates(map[string]interface{}{"is_active": false, "rejection_reason": reason}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to reject user: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// fetchPosting loads one posting of the given kind, answering 404 itself.
func (mc *ModerationController) fetchPosting(c *gin.Context, kind model.PostingKind) (model.Posting, bool) {
	posting := kind.New()
	if err := mc.DB.Where("id = ?", c.Param("id")).First(posting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: fmt.Sprintf("%s not found", strings.ToUpper(kind.Name[:1])+kind.Name[1:]),
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve %s: %s", kind.Name, err.Error()),
		})
		return nil, false
	}
	return posting, true
}

// PendingPostings returns the handler listing unpublished postings of one
// kind. Rejected postings stay in the queue so admins can revisit them,
// unlike rejected user accounts.
// @Summary List postings pending moderation
// @Tags Moderation
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Vacancy
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /moderation/vacancy/pending [get]
func (mc *ModerationController) PendingPostings(kindKey string) gin.HandlerFunc {
	kind := model.PostingKinds[kindKey]

	return func(c *gin.Context) {
		postings := kind.NewList()
		if err := mc.DB.
			Where("is_published = false").
			Order("posted_at ASC").
			Find(postings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to fetch pending %s postings: %s", kind.Name, err.Error()),
			})
			return
		}

		c.JSON(http.StatusOK, postings)
	}
}

// PublishPosting returns the handler making a posting of one kind publicly
// visible, clearing any previous rejection. Publishing an already published
// posting changes nothing.
// @Summary Publish a posting
// @Tags Moderation
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the posting"
// @Success 200 {object} model.Vacancy
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Posting not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /moderation/vacancy/{id}/publish [post]
func (mc *ModerationController) PublishPosting(kindKey string) gin.HandlerFunc {
	kind := model.PostingKinds[kindKey]

	return func(c *gin.Context) {
		posting, ok := mc.fetchPosting(c, kind)
		if !ok {
			return
		}

		posting.Moderation().Publish()
		if err := mc.DB.Model(posting).
			Updates(map[string]interface{}{"is_published": true, "rejection_reason": nil}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to publish %s: %s", kind.Name, err.Error()),
			})
			return
		}

		c.JSON(http.StatusOK, posting)
	}
}

// RejectPosting returns the handler hiding a posting of one kind and
// recording why. The owner sees the reason in their own listings and clears
// it by editing the posting.
// @Summary Reject a posting with a reason
// @Tags Moderation
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the posting"
// @Param request body rejectRequest true "Rejection reason, 10 to 500 characters"
// @Success 200 {object} model.Vacancy
// @Failure 400 {object} utilities.ErrorResponse "Missing or out of bounds reason"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Posting not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /moderation/vacancy/{id}/reject [post]
func (mc *ModerationController) RejectPosting(kindKey string) gin.HandlerFunc {
	kind := model.PostingKinds[kindKey]

	return func(c *gin.Context) {
		request := rejectRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
			})
			return
		}
		reason, ok := validateReason(c, request.Reason)
		if !ok {
			return
		}

		posting, ok := mc.fetchPosting(c, kind)
		if !ok {
			return
		}

		posting.Moderation().Reject(reason)
		if err := mc.DB.Model(posting).
			Updates(map[string]interface{}{"is_published": false, "rejection_reason": reason}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to reject %s: %s", kind.Name, err.Error()),
			})
			return
		}

		c.JSON(http.StatusOK, posting)
	}
}
