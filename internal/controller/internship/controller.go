// Package internship provides HTTP handlers for internship related operations.
package internship

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/model"
	"github.com/jinxovich/mosprom-sracaton/internal/utilities"
)

// InternshipController handles internship related endpoints
type InternshipController struct {
	DB *database.DBinstanceStruct
}

// NewInternshipController creates a new instance of InternshipController
func NewInternshipController(db *database.DBinstanceStruct) *InternshipController {
	return &InternshipController{
		DB: db,
	}
}

// CreateInternship handles the creation of a new internship by a university user.
// The internship always starts unpublished and waits for admin moderation.
// @Summary Create internship based on given json structure
// @Description Only university users have access to this endpoint. The internship is created unpublished
// @Tags Internship
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Internship body model.EditableInternshipInfo true "Input internship information"
// @Success 201 {object} model.Internship "Successfully create internship"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid internship struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as university"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships [post]
func (ic *InternshipController) CreateInternship(c *gin.Context) {

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	internship := model.Internship{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&internship.EditableInternshipInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if internship.Title == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Title is required",
		})
		return
	}

	internship.OwnerID = user.ID
	internship.Moderated = model.Moderated{}
	if err := ic.DB.Create(&internship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to create internship: ", err),
		})
		return
	}

	c.JSON(http.StatusCreated, internship)
}

// GetInternships fetches published internships that match query from the database.
// No authorization required.
// @Summary Get published internships based on query
// @Tags Internship
// @Produce json
// @Param search query string false "Search from internship title with substring matching and case insensitive"
// @Param location query string false "Search from work location with substring matching and case insensitive"
// @Param schedule query string false "Specialty track field, must exactly match to get result"
// @Param salary_min query number false "Only internships paying at least this much"
// @Param salary_max query number false "Only internships starting at or below this much"
// @Param skip query integer false "Pagination offset, default 0"
// @Param limit query integer false "Pagination limit, default 100"
// @Success 200 {array} model.Internship "Return published internships"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships [get]
func (ic *InternshipController) GetInternships(c *gin.Context) {

	rawSearch := c.Query("search")
	rawLocation := c.Query("location")
	rawSchedule := c.Query("schedule")
	rawSalaryMin := c.Query("salary_min")
	rawSalaryMax := c.Query("salary_max")

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	result := ic.DB.Where("is_published = ?", true)

	if rawSearch != "" {
		result = result.Where("title ILIKE ?", "%"+rawSearch+"%")
	}

	if rawLocation != "" {
		result = result.Where("work_location ILIKE ?", "%"+rawLocation+"%")
	}

	if rawSchedule != "" {
		result = result.Where("work_schedule = ?", rawSchedule)
	}

	if rawSalaryMin != "" {
		if salaryMin, err := strconv.ParseFloat(rawSalaryMin, 64); err == nil {
			result = result.Where("salary_max >= ?", salaryMin)
		}
	}

	if rawSalaryMax != "" {
		if salaryMax, err := strconv.ParseFloat(rawSalaryMax, 64); err == nil {
			result = result.Where("salary_min <= ?", salaryMax)
		}
	}

	var internships []model.Internship
	if err := result.Offset(skip).Limit(limit).Order("posted_at DESC").Find(&internships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch internships: ", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, internships)
}

// GetInternshipByID fetches an internship by its ID from the database.
// Unpublished internships are only visible to their owner and admins.
// @Summary Get internship by ID
// @Tags Internship
// @Produce json
// @Param id path integer true "ID of desired internship"
// @Success 200 {object} model.Internship "Return the internship with the specified ID"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id} [get]
func (ic *InternshipController) GetInternshipByID(c *gin.Context) {
	id := c.Param("id")

	user, _ := utilities.ExtractUser(c)

	internship := model.Internship{}
	if err := ic.DB.Where("id = ?", id).First(&internship).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Internship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve internship: %s", err.Error()),
		})
		return
	}

	if !internship.IsPublished && internship.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Internship not found"})
		return
	}

	c.JSON(http.StatusOK, internship)
}

// GetMyInternships returns every internship owned by the caller regardless of
// publication state.
// @Summary Get own internships
// @Description Only university users have access to this endpoint. Rejected internships are hidden unless include_rejected is true
// @Tags Internship
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param include_rejected query boolean false "Include rejected internships in the result"
// @Success 200 {array} model.Internship
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as university"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /my/internships [get]
func (ic *InternshipController) GetMyInternships(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	result := ic.DB.Where("owner_id = ?", user.ID)
	if c.DefaultQuery("include_rejected", "false") != "true" {
		result = result.Where("rejection_reason IS NULL")
	}

	var internships []model.Internship
	if err := result.Order("posted_at DESC").Find(&internships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch internships: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, internships)
}

// EditInternship allows the owner or an admin to update an internship.
// Editing a rejected internship clears the rejection reason, which returns it
// to the moderation queue.
// @Summary Edit internship based on given json structure
// @Description Only the university that own the internship or admin have access to this endpoint
// @Tags Internship
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired internship"
// @Param Internship body model.EditableInternshipInfo true "Input internship information"
// @Success 200 {object} model.Internship "Successfully update internship"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to edit"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id} [patch]
func (ic *InternshipController) EditInternship(c *gin.Context) {

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")

	internship := model.Internship{}

	if err := ic.DB.Where("id = ?", id).First(&internship).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Internship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve internship: %s", err.Error()),
		})
		return
	}

	if internship.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You are not allowed to edit this internship",
		})
		return
	}

	updated := model.Internship{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&updated.EditableInternshipInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to parse request body: %s", err.Error()),
		})
		return
	}

	wasRejected := internship.RejectionReason != nil

	// Field update and resubmit share one transaction, a failure never leaves
	// the internship edited but still marked rejected
	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&internship).Updates(updated.EditableInternshipInfo).Error; err != nil {
			return err
		}
		if wasRejected {
			return tx.Model(&internship).Update("rejection_reason", nil).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update internship: %s", err.Error()),
		})
		return
	}

	if err := ic.DB.Where("id = ?", internship.ID).First(&internship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve updated internship: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, internship)
}

// UnpublishInternship takes a published internship off the public listing
// without rejecting it. Allowed for the owner and admins.
// @Summary Unpublish own internship
// @Tags Internship
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired internship"
// @Success 200 {object} model.Internship
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to unpublish"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id}/unpublish [patch]
func (ic *InternshipController) UnpublishInternship(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")

	internship := model.Internship{}
	if err := ic.DB.Where("id = ?", id).First(&internship).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Internship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve internship: %s", err.Error()),
		})
		return
	}

	if internship.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You are not allowed to unpublish this internship",
		})
		return
	}

	internship.Moderated.Unpublish()
	if err := ic.DB.Model(&internship).Update("is_published", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to unpublish internship: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, internship)
}

// DeleteInternship allows the owner or an admin to delete an internship.
// @Summary Delete given internship ID
// @Description Only the university that own the internship or admin have access to this endpoint
// @Tags Internship
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired internship"
// @Success 200 {object} utilities.MessageResponse "Successfully delete internship"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to delete this internship"
// @Failure 404 {object} utilities.ErrorResponse "Internship not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /internships/{id} [delete]
func (ic *InternshipController) DeleteInternship(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")

	internship := model.Internship{}
	if err := ic.DB.Where("id = ?", id).First(&internship).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Internship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve internship: %s", err.Error()),
		})
		return
	}

	if internship.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You are not allowed to delete this internship",
		})
		return
	}

	if err := ic.DB.Delete(&internship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete internship: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Internship deleted"})
}
