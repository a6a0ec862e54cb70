// Package user provides HTTP handlers for account self service.
package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/utilities"
)

// UserController handles user account endpoints
type UserController struct {
	DB *database.DBinstanceStruct
}

// NewUserController creates a new instance of UserController
// with the provided database connection.
func NewUserController(db *database.DBinstanceStruct) *UserController {
	return &UserController{DB: db}
}

// Me returns the authenticated caller's own account.
// @Summary Get the current user
// @Tags User
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Router /users/me [get]
func (uc *UserController) Me(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}
