package user

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"github.com/jinxovich/mosprom-sracaton/internal/auth"
	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/middleware"
	"github.com/jinxovich/mosprom-sracaton/internal/testutil"
)

var testDB *database.DBinstanceStruct
var testTokens *auth.TokenIssuer

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if os.Getenv("SECRET_KEY") == "" {
		_ = os.Setenv("SECRET_KEY", "unit-test-secret")
	}

	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	testTokens = auth.NewTokenIssuer()

	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
	os.Exit(code)
}

func userEngine() *gin.Engine {
	r := gin.New()
	uc := NewUserController(testDB)
	r.GET("/users/me", middleware.RequireAuth(testDB, testTokens), uc.Me)
	return r
}

func TestMe(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	r := userEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/users/me", http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, database.TestUserApplicant1.ID.String(), resp["id"])
	assert.Equal(t, database.TestUserApplicant1.Email, resp["email"])
	assert.Equal(t, "applicant", resp["role"])
	assert.NotContains(t, resp, "password")
}

func TestMe_Unauthorized(t *testing.T) {
	r := userEngine()
	rec, _ := testutil.MakeJSONRequest(nil, "", r, "/users/me", http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
