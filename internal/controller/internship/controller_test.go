package internship

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"github.com/jinxovich/mosprom-sracaton/internal/auth"
	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/middleware"
	"github.com/jinxovich/mosprom-sracaton/internal/model"
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

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func internshipEngine() *gin.Engine {
	r := gin.New()
	ic := NewInternshipController(testDB)

	r.GET("/internships", ic.GetInternships)
	r.GET("/internships/:id", middleware.OptionalAuth(testDB, testTokens), ic.GetInternshipByID)
	r.POST("/internships", middleware.RequireAuth(testDB, testTokens),
		middleware.CheckRole(model.RoleUniversity), ic.CreateInternship)
	r.GET("/my/internships", middleware.RequireAuth(testDB, testTokens),
		middleware.CheckRole(model.RoleUniversity), ic.GetMyInternships)
	r.PATCH("/internships/:id", middleware.RequireAuth(testDB, testTokens),
		middleware.CheckRole(model.RoleUniversity, model.RoleAdmin), ic.EditInternship)
	r.PATCH("/internships/:id/unpublish", middleware.RequireAuth(testDB, testTokens),
		middleware.CheckRole(model.RoleUniversity, model.RoleAdmin), ic.UnpublishInternship)
	r.DELETE("/internships/:id", middleware.RequireAuth(testDB, testTokens),
		middleware.CheckRole(model.RoleUniversity, model.RoleAdmin), ic.DeleteInternship)

	return r
}

func TestCreateInternship(t *testing.T) {
	uniToken, err := auth.GetAccessToken(t, testDB, database.TestUserUniversity1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	r := internshipEngine()
	body := gin.H{
		"title":         "Foundry Practice",
		"company_name":  "Moscow Polytech",
		"work_location": "Moscow",
		"work_schedule": "metallurgy",
	}
	rec, resp := testutil.MakeJSONRequest(body, uniToken, r, "/internships", http.MethodPost)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Foundry Practice", resp["title"])
	assert.Equal(t, false, resp["is_published"])
}

func TestCreateInternship_ForbiddenForHR(t *testing.T) {
	hrToken, err := auth.GetAccessToken(t, testDB, database.TestUserHR1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	r := internshipEngine()
	rec, _ := testutil.MakeJSONRequest(gin.H{"title": "Nope"}, hrToken, r, "/internships", http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetInternships_PublishedOnly(t *testing.T) {
	r := internshipEngine()
	rec, _ := testutil.MakeJSONRequest(nil, "", r, "/internships", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	var internships []model.Internship
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &internships))
	assert.NotEmpty(t, internships)
	for _, i := range internships {
		assert.True(t, i.IsPublished)
	}
}

func TestGetInternships_ScheduleFilter(t *testing.T) {
	r := internshipEngine()
	rec, _ := testutil.MakeJSONRequest(nil, "", r, "/internships?schedule=metallurgy", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	var internships []model.Internship
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &internships))
	assert.NotEmpty(t, internships)
	for _, i := range internships {
		assert.Equal(t, "metallurgy", i.WorkSchedule)
	}

	rec, _ = testutil.MakeJSONRequest(nil, "", r, "/internships?schedule=astronomy", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
	var none []model.Internship
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &none))
	assert.Empty(t, none)
}

func TestGetInternshipByID_UnpublishedHiddenFromAnonymous(t *testing.T) {
	r := internshipEngine()
	rec, resp := testutil.MakeJSONRequest(nil, "", r,
		"/internships/"+itoa(database.TestInternshipPending.ID), http.MethodGet)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Internship not found", resp["error"])
}

func TestGetInternshipByID_UnpublishedVisibleToOwner(t *testing.T) {
	uniToken, err := auth.GetAccessToken(t, testDB, database.TestUserUniversity1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	r := internshipEngine()
	rec, resp := testutil.MakeJSONRequest(nil, uniToken, r,
		"/internships/"+itoa(database.TestInternshipPending.ID), http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, database.TestInternshipPending.Title, resp["title"])
}

func TestGetMyInternships(t *testing.T) {
	uniToken, err := auth.GetAccessToken(t, testDB, database.TestUserUniversity1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	r := internshipEngine()
	rec, _ := testutil.MakeJSONRequest(nil, uniToken, r, "/my/internships", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	var mine []model.Internship
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.NotEmpty(t, mine)
	for _, i := range mine {
		assert.Equal(t, database.TestUserUniversity1.ID, i.OwnerID)
	}
}

func TestEditInternship_ByOwner(t *testing.T) {
	uniToken, err := auth.GetAccessToken(t, testDB, database.TestUserUniversity1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	fixture := model.Internship{
		OwnerID: database.TestUserUniversity1.ID,
		EditableInternshipInfo: model.EditableInternshipInfo{
			Title:        "Editable Internship",
			WorkSchedule: "quality",
		},
	}
	assert.NoError(t, testDB.Create(&fixture).Error)

	r := internshipEngine()
	rec, resp := testutil.MakeJSONRequest(gin.H{"title": "Edited Internship"}, uniToken, r,
		"/internships/"+itoa(fixture.ID), http.MethodPatch)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Edited Internship", resp["title"])
}

func TestEditInternship_ResubmitsRejected(t *testing.T) {
	uniToken, err := auth.GetAccessToken(t, testDB, database.TestUserUniversity1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	fixture := model.Internship{
		OwnerID: database.TestUserUniversity1.ID,
		EditableInternshipInfo: model.EditableInternshipInfo{
			Title: "Rejected Internship",
		},
		Moderated: model.Moderated{RejectionReason: testutil.StringPtr("Listing misses the supervising department")},
	}
	assert.NoError(t, testDB.Create(&fixture).Error)

	r := internshipEngine()
	rec, resp := testutil.MakeJSONRequest(gin.H{"title": "Rejected Internship, Reworked"}, uniToken, r,
		"/internships/"+itoa(fixture.ID), http.MethodPatch)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Rejected Internship, Reworked", resp["title"])
	// Editing resubmits: the reason is gone and the internship waits for moderation again
	assert.NotContains(t, resp, "rejection_reason")
	assert.Equal(t, false, resp["is_published"])
}

func TestDeleteInternship_ByOwner(t *testing.T) {
	uniToken, err := auth.GetAccessToken(t, testDB, database.TestUserUniversity1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	fixture := model.Internship{
		OwnerID: database.TestUserUniversity1.ID,
		EditableInternshipInfo: model.EditableInternshipInfo{
			Title: "Doomed Internship",
		},
	}
	assert.NoError(t, testDB.Create(&fixture).Error)

	r := internshipEngine()
	rec, resp := testutil.MakeJSONRequest(nil, uniToken, r, "/internships/"+itoa(fixture.ID), http.MethodDelete)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Internship deleted", resp["message"])
}
