// Package vacancy provides HTTP handlers for vacancy related operations.
package vacancy

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

// VacancyController handles vacancy related endpoints
type VacancyController struct {
	DB *database.DBinstanceStruct
}

// NewVacancyController creates a new instance of VacancyController
func NewVacancyController(db *database.DBinstanceStruct) *VacancyController {
	return &VacancyController{
		DB: db,
	}
}

// CreateVacancy handles the creation of a new vacancy by an HR user.
// The vacancy always starts unpublished and waits for admin moderation.
// @Summary Create vacancy based on given json structure
// @Description Only HR users have access to this endpoint. The vacancy is created unpublished
// @Tags Vacancy
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Vacancy body model.EditableVacancyInfo true "Input vacancy information"
// @Success 201 {object} model.Vacancy "Successfully create vacancy"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid vacancy struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as HR"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancies [post]
func (vc *VacancyController) CreateVacancy(c *gin.Context) {

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	// construct vacancy from request
	vacancy := model.Vacancy{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&vacancy.EditableVacancyInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if vacancy.Title == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Title is required",
		})
		return
	}

	// save vacancy, moderation state is never taken from the request
	vacancy.OwnerID = user.ID
	vacancy.Moderated = model.Moderated{}
	if err := vc.DB.Create(&vacancy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to create vacancy: ", err),
		})
		return
	}

	c.JSON(http.StatusCreated, vacancy)
}

// GetVacancies fetches published vacancies that match query from the database
// and returns them as a JSON response. No authorization required.
// @Summary Get published vacancies based on query
// @Description Every query are not required, but they have specific use defined in their description
// @Tags Vacancy
// @Produce json
// @Param search query string false "Search from vacancy title with substring matching and case insensitive"
// @Param location query string false "Search from work location with substring matching and case insensitive"
// @Param schedule query string false "Work schedule field, must exactly match to get result"
// @Param salary_min query number false "Only vacancies paying at least this much"
// @Param salary_max query number false "Only vacancies starting at or below this much"
// @Param tag query string false "Search if tags field contain tag param, no substring matching and case insensitive"
// @Param skip query integer false "Pagination offset, default 0"
// @Param limit query integer false "Pagination limit, default 100"
// @Success 200 {array} model.Vacancy "Return published vacancies"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancies [get]
func (vc *VacancyController) GetVacancies(c *gin.Context) {

	rawSearch := c.Query("search")
	rawLocation := c.Query("location")
	rawSchedule := c.Query("schedule")
	rawSalaryMin := c.Query("salary_min")
	rawSalaryMax := c.Query("salary_max")
	rawTag := c.Query("tag")

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	result := vc.DB.Where("is_published = ?", true)

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

	if rawTag != "" {
		result = result.Where("? ILIKE ANY(tags)", rawTag)
	}

	var vacancies []model.Vacancy
	if err := result.Offset(skip).Limit(limit).Order("posted_at DESC").Find(&vacancies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch vacancies: ", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, vacancies)
}

// GetVacancyByID fetches a vacancy by its ID from the database.
// Unpublished vacancies are only visible to their owner and admins; everyone
// else gets the same 404 an absent id would produce.
// @Summary Get vacancy by ID
// @Description Retrieve a specific vacancy using its unique ID
// @Tags Vacancy
// @Produce json
// @Param id path integer true "ID of desired vacancy"
// @Success 200 {object} model.Vacancy "Return the vacancy with the specified ID"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancies/{id} [get]
func (vc *VacancyController) GetVacancyByID(c *gin.Context) {
	id := c.Param("id")

	// Anonymous callers are fine here, the user is only used for visibility
	user, _ := utilities.ExtractUser(c)

	vacancy := model.Vacancy{}
	if err := vc.DB.Where("id = ?", id).First(&vacancy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve vacancy: %s", err.Error()),
		})
		return
	}

	if !vacancy.IsPublished && vacancy.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
		return
	}

	c.JSON(http.StatusOK, vacancy)
}

// GetMyVacancies returns every vacancy owned by the caller regardless of
// publication state.
// @Summary Get own vacancies
// @Description Only HR users have access to this endpoint. Rejected vacancies are hidden unless include_rejected is true
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param include_rejected query boolean false "Include rejected vacancies in the result"
// @Success 200 {array} model.Vacancy
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as HR"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /my/vacancies [get]
func (vc *VacancyController) GetMyVacancies(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	result := vc.DB.Where("owner_id = ?", user.ID)
	if c.DefaultQuery("include_rejected", "false") != "true" {
		result = result.Where("rejection_reason IS NULL")
	}

	var vacancies []model.Vacancy
	if err := result.Order("posted_at DESC").Find(&vacancies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch vacancies: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, vacancies)
}

// EditVacancy allows the owner or an admin to update a vacancy.
// Editing a rejected vacancy clears the rejection reason, which returns it
// to the moderation queue.
// @Summary Edit vacancy based on given json structure
// @Description Only the HR that own the vacancy or admin have access to this endpoint
// @Tags Vacancy
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired vacancy"
// @Param Vacancy body model.EditableVacancyInfo true "Input vacancy information"
// @Success 200 {object} model.Vacancy "Successfully update vacancy"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid vacancy struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to edit"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancies/{id} [patch]
func (vc *VacancyController) EditVacancy(c *gin.Context) {

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")

	vacancy := model.Vacancy{}

	// Find existing vacancy
	if err := vc.DB.Where("id = ?", id).First(&vacancy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve vacancy: %s", err.Error()),
		})
		return
	}

	// Verify ownership before touching anything
	if vacancy.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You are not allowed to edit this vacancy",
		})
		return
	}

	// Bind incoming JSON to a temporary struct to avoid overwriting ownership
	// and moderation fields
	updated := model.Vacancy{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&updated.EditableVacancyInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to parse request body: %s", err.Error()),
		})
		return
	}

	wasRejected := vacancy.RejectionReason != nil

	// Re-editing a rejected vacancy resubmits it for moderation. The field
	// update and the resubmit land in the same transaction so a failure never
	// leaves the vacancy edited but still marked rejected.
	err = vc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&vacancy).Updates(updated.EditableVacancyInfo).Error; err != nil {
			return err
		}
		if wasRejected {
			return tx.Model(&vacancy).Update("rejection_reason", nil).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update vacancy: %s", err.Error()),
		})
		return
	}

	// Reload the vacancy to return the latest data
	if err := vc.DB.Where("id = ?", vacancy.ID).First(&vacancy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve updated vacancy: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, vacancy)
}

// UnpublishVacancy takes a published vacancy off the public listing without
// rejecting it. Allowed for the owner and admins.
// @Summary Unpublish own vacancy
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired vacancy"
// @Success 200 {object} model.Vacancy
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to unpublish"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancies/{id}/unpublish [patch]
func (vc *VacancyController) UnpublishVacancy(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")

	vacancy := model.Vacancy{}
	if err := vc.DB.Where("id = ?", id).First(&vacancy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve vacancy: %s", err.Error()),
		})
		return
	}

	if vacancy.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You are not allowed to unpublish this vacancy",
		})
		return
	}

	vacancy.Moderated.Unpublish()
	if err := vc.DB.Model(&vacancy).Update("is_published", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to unpublish vacancy: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, vacancy)
}

// DeleteVacancy allows the owner or an admin to delete a vacancy.
// @Summary Delete given vacancy ID
// @Description Only the HR that own the vacancy or admin have access to this endpoint
// @Tags Vacancy
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired vacancy"
// @Success 200 {object} utilities.MessageResponse "Successfully delete vacancy"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to delete this vacancy"
// @Failure 404 {object} utilities.ErrorResponse "Vacancy not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /vacancies/{id} [delete]
func (vc *VacancyController) DeleteVacancy(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")

	vacancy := model.Vacancy{}
	if err := vc.DB.Where("id = ?", id).First(&vacancy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Vacancy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve vacancy: %s", err.Error()),
		})
		return
	}

	if vacancy.OwnerID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You are not allowed to delete this vacancy",
		})
		return
	}

	if err := vc.DB.Delete(&vacancy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete vacancy: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Vacancy deleted"})
}
