// Package application provides HTTP handlers for job application operations.
package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/model"
	"github.com/jinxovich/mosprom-sracaton/internal/storage"
	"github.com/jinxovich/mosprom-sracaton/internal/utilities"
)

const resumeObjectPrefix = "resumes"

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	DB      *database.DBinstanceStruct
	Storage storage.Client
}

// NewApplicationController creates a new instance of ApplicationController
// with the provided database connection and blob storage.
func NewApplicationController(db *database.DBinstanceStruct, store storage.Client) *ApplicationController {
	return &ApplicationController{
		DB:      db,
		Storage: store,
	}
}

// Apply returns the handler for applying to one posting kind. The eligible
// role set comes from the kind descriptor, not from the handler.
// @Summary Apply to a published vacancy or internship
// @Description Caller must have the applicant role for the posting kind. A resume file (.pdf) or a structured resume form must be provided
// @Tags Application
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the posting"
// @Param resume_file formData file false "Resume file, pdf only"
// @Param resume_data formData string false "Structured resume form as a JSON object"
// @Success 201 {object} model.Application "Successfully applied"
// @Failure 400 {object} utilities.ErrorResponse "No resume provided or malformed resume data"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Caller role cannot apply to this posting kind"
// @Failure 404 {object} utilities.ErrorResponse "Posting not found or not published"
// @Failure 409 {object} utilities.ErrorResponse "Already applied to this posting"
// @Failure 500 {object} utilities.ErrorResponse "Database or storage error"
// @Router /applications/vacancy/{id} [post]
func (ac *ApplicationController) Apply(kindKey string) gin.HandlerFunc {
	kind := model.PostingKinds[kindKey]
	kindTitle := strings.ToUpper(kind.Name[:1]) + kind.Name[1:]

	return func(c *gin.Context) {
		user, err := utilities.ExtractUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
			return
		}

		if !utilities.Contains(kind.ApplicantRoles, user.Role) {
			c.JSON(http.StatusForbidden, utilities.ErrorResponse{
				Error: fmt.Sprintf("Role '%s' cannot apply to a %s", user.Role, kind.Name),
			})
			return
		}

		id := c.Param("id")

		// Unpublished postings answer exactly like absent ones
		posting := kind.New()
		if err := ac.DB.Where("id = ?", id).First(posting).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, utilities.ErrorResponse{
					Error: fmt.Sprintf("%s not found or not published", kindTitle),
				})
				return
			}
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to retrieve %s: %s", kind.Name, err.Error()),
			})
			return
		}
		if !posting.Moderation().IsPublished {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: fmt.Sprintf("%s not found or not published", kindTitle),
			})
			return
		}

		// Prevent duplicate applications before trying the insert; the unique
		// index catches whatever races past this check
		existing := model.Application{}
		err = ac.DB.
			Where("applicant_id = ? AND "+kind.Name+"_id = ?", user.ID, posting.PostingID()).
			First(&existing).Error
		if err == nil {
			c.JSON(http.StatusConflict, utilities.ErrorResponse{
				Error: fmt.Sprintf("You have already applied to this %s", kind.Name),
			})
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: "Failed to check existing application",
			})
			return
		}

		application := model.Application{
			ApplicantID: user.ID,
		}
		postingID := posting.PostingID()
		switch kind.Name {
		case "vacancy":
			application.VacancyID = &postingID
		case "internship":
			application.InternshipID = &postingID
		}

		rawFile, fileErr := c.FormFile("resume_file")
		var maxBytesError *http.MaxBytesError
		if errors.As(fileErr, &maxBytesError) {
			c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
				Error: fileErr.Error(),
			})
			return
		}
		rawData := c.PostForm("resume_data")

		if fileErr != nil && rawData == "" {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "Either resume file or resume data must be provided",
			})
			return
		}

		if rawData != "" {
			resumeData := model.ResumeData{}
			if err := json.Unmarshal([]byte(rawData), &resumeData); err != nil {
				c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
					Error: fmt.Sprintf("Malformed resume data: %s", err.Error()),
				})
				return
			}
			if err := resumeData.Validate(); err != nil {
				c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
					Error: fmt.Sprintf("Invalid resume data: %s", err.Error()),
				})
				return
			}
			application.ResumeData = resumeData
		}

		if fileErr == nil {
			objectName, ok := ac.storeResume(c, rawFile)
			if !ok {
				return
			}
			application.ResumeFilePath = &objectName
		}

		if err := ac.DB.Create(&application).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505":
					c.JSON(http.StatusConflict, utilities.ErrorResponse{
						Error: fmt.Sprintf("You have already applied to this %s", kind.Name),
					})
					return
				case "23503":
					c.JSON(http.StatusNotFound, utilities.ErrorResponse{
						Error: fmt.Sprintf("%s not found or not published", kindTitle),
					})
					return
				}
			}
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to create application: %s", err.Error()),
			})
			return
		}

		c.JSON(http.StatusCreated, application)
	}
}

// storeResume saves the uploaded file under a server generated object name.
// The client supplied filename only contributes its extension, so a stored
// path can never be chosen by the client. Writes the error response and
// returns false when the upload cannot be stored.
func (ac *ApplicationController) storeResume(c *gin.Context, rawFile *multipart.FileHeader) (string, bool) {
	extension := strings.ToLower(filepath.Ext(rawFile.Filename))
	if extension != ".pdf" {
		c.JSON(http.StatusUnsupportedMediaType, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension: %s", extension),
		})
		return "", false
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return "", false
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close uploaded file: %v", err)
		}
	}()

	objectName := fmt.Sprintf("%s/%s%s", resumeObjectPrefix, uuid.NewString(), extension)
	if err := ac.Storage.UploadFile(objectName, f); err != nil {
		// Storage write failures are fatal for the request, never retried
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to store resume: %s", err.Error()),
		})
		return "", false
	}

	return objectName, true
}

// MyVacancyApplications returns every application targeting one of the
// caller's vacancies.
// @Summary Get applications to own vacancies
// @Description Only HR users have access to this endpoint
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Application
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as HR"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/my-vacancy-applications [get]
func (ac *ApplicationController) MyVacancyApplications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	applications := []model.Application{}
	if err := ac.DB.
		Joins("JOIN vacancies ON vacancies.id = applications.vacancy_id").
		Where("vacancies.owner_id = ?", user.ID).
		Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch applications: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, applications)
}

// MyInternshipApplications returns every application targeting one of the
// caller's internships.
// @Summary Get applications to own internships
// @Description Only university users have access to this endpoint
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Application
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as university"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/my-internship-applications [get]
func (ac *ApplicationController) MyInternshipApplications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	applications := []model.Application{}
	if err := ac.DB.
		Joins("JOIN internships ON internships.id = applications.internship_id").
		Where("internships.owner_id = ?", user.ID).
		Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch applications: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, applications)
}

// DownloadResume streams the resume file attached to an application.
// Only the owner of the posting the application targets may download it.
// @Summary Download the resume file of an application
// @Tags Application
// @Produce octet-stream
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the application"
// @Success 200 {string} binary "Resume file content"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Caller does not own the posting"
// @Failure 404 {object} utilities.ErrorResponse "Application, file path or stored file not found"
// @Failure 500 {object} utilities.ErrorResponse "Fail to send file content"
// @Router /applications/resume/{id} [get]
func (ac *ApplicationController) DownloadResume(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")

	application := model.Application{}
	if err := ac.DB.
		Preload("Vacancy").
		Preload("Internship").
		Where("id = ?", id).
		First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Application not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve application: %s", err.Error()),
		})
		return
	}

	var ownerID uuid.UUID
	switch {
	case application.Vacancy != nil:
		ownerID = application.Vacancy.OwnerID
	case application.Internship != nil:
		ownerID = application.Internship.OwnerID
	}

	if ownerID != user.ID {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You don't own the posting this application targets",
		})
		return
	}

	if application.ResumeFilePath == nil {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "No resume file recorded"})
		return
	}

	reader, size, err := ac.Storage.DownloadFile(*application.ResumeFilePath)
	if err != nil {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Resume file not found"})
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("failed to close storage reader: %v", err)
		}
	}()

	c.Writer.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(*application.ResumeFilePath))
	c.Writer.Header().Set("Content-Type", "application/octet-stream")
	if size > 0 {
		c.Writer.Header().Set("Content-Length", fmt.Sprint(size))
	}

	if _, err := io.Copy(c.Writer, reader); err != nil {
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: "Failed to send file content",
			})
		} else {
			c.Abort()
		}
	}
}
