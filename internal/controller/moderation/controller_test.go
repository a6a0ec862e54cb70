package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
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

func moderationEngine() *gin.Engine {
	r := gin.New()
	mc := NewModerationController(testDB)

	route := r.Group("/moderation",
		middleware.RequireAuth(testDB, testTokens), middleware.CheckRole(model.RoleAdmin))
	route.GET("users/pending", mc.PendingUsers)
	route.POST("users/:id/publish", mc.ApproveUser)
	route.POST("users/:id/reject", mc.RejectUser)
	for _, kindKey := range []string{"vacancy", "internship"} {
		route.GET(kindKey+"/pending", mc.PendingPostings(kindKey))
		route.POST(kindKey+"/:id/publish", mc.PublishPosting(kindKey))
		route.POST(kindKey+"/:id/reject", mc.RejectPosting(kindKey))
	}

	return r
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestAdminUser.Email, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func TestPendingUsers(t *testing.T) {
	r := moderationEngine()
	rec, _ := testutil.MakeJSONRequest(nil, adminToken(t), r, "/moderation/users/pending", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users []model.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))

	found := false
	for _, u := range users {
		assert.False(t, u.IsActive)
		assert.Nil(t, u.RejectionReason, "rejected accounts are not pending")
		assert.Contains(t, []string{model.RoleHR, model.RoleUniversity}, u.Role)
		if u.ID == database.TestUserHR2.ID {
			found = true
		}
	}
	assert.True(t, found, "seeded pending HR should be listed")
}

func TestPendingUsers_ForbiddenForNonAdmin(t *testing.T) {
	hrToken, err := auth.GetAccessToken(t, testDB, database.TestUserHR1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	r := moderationEngine()
	rec, _ := testutil.MakeJSONRequest(nil, hrToken, r, "/moderation/users/pending", http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveUser(t *testing.T) {
	pending := model.User{
		Email:    "approve_me@example.com",
		Password: "irrelevant-hash",
		Role:     model.RoleUniversity,
	}
	assert.NoError(t, testDB.Create(&pending).Error)

	r := moderationEngine()
	endpoint := "/moderation/users/" + pending.ID.String() + "/publish"

	rec, resp := testutil.MakeJSONRequest(nil, adminToken(t), r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["is_active"])

	// Approving again changes nothing
	rec, resp = testutil.MakeJSONRequest(nil, adminToken(t), r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["is_active"])
}

func TestApproveUser_ClearsRejection(t *testing.T) {
	rejected := model.User{
		Email:           "second_chance@example.com",
		Password:        "irrelevant-hash",
		Role:            model.RoleHR,
		RejectionReason: testutil.StringPtr("Initial application was incomplete"),
	}
	assert.NoError(t, testDB.Create(&rejected).Error)

	r := moderationEngine()
	rec, resp := testutil.MakeJSONRequest(nil, adminToken(t), r,
		"/moderation/users/"+rejected.ID.String()+"/publish", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["is_active"])
	assert.NotContains(t, resp, "rejection_reason")
}

func TestApproveUser_NotFound(t *testing.T) {
	r := moderationEngine()
	rec, _ := testutil.MakeJSONRequest(nil, adminToken(t), r,
		"/moderation/users/00000000-0000-0000-0000-00000000dead/publish", http.MethodPost)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectUser(t *testing.T) {
	pending := model.User{
		Email:    "reject_me@example.com",
		Password: "irrelevant-hash",
		Role:     model.RoleHR,
	}
	assert.NoError(t, testDB.Create(&pending).Error)

	r := moderationEngine()
	reason := "Registry lookup for the company failed"
	rec, resp := testutil.MakeJSONRequest(gin.H{"rejection_reason": reason}, adminToken(t), r,
		"/moderation/users/"+pending.ID.String()+"/reject", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, resp["is_active"])
	assert.Equal(t, reason, resp["rejection_reason"])
}

func TestRejectUser_ReasonBounds(t *testing.T) {
	r := moderationEngine()
	endpoint := "/moderation/users/" + database.TestUserHR2.ID.String() + "/reject"

	// Too short after trimming
	rec, resp := testutil.MakeJSONRequest(gin.H{"rejection_reason": "  nope   "}, adminToken(t), r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "between 10 and 500 characters")

	// Too long
	rec, _ = testutil.MakeJSONRequest(gin.H{"rejection_reason": strings.Repeat("x", 501)}, adminToken(t), r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing body
	rec, _ = testutil.MakeJSONRequest(nil, adminToken(t), r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectUser_MultibyteReasonCountsRunes(t *testing.T) {
	pending := model.User{
		Email:    "reject_multibyte@example.com",
		Password: "irrelevant-hash",
		Role:     model.RoleUniversity,
	}
	assert.NoError(t, testDB.Create(&pending).Error)

	r := moderationEngine()
	// 260 Cyrillic characters are over 500 bytes but well within the bound
	reason := strings.Repeat("д", 260)
	rec, resp := testutil.MakeJSONRequest(gin.H{"rejection_reason": reason}, adminToken(t), r,
		"/moderation/users/"+pending.ID.String()+"/reject", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, reason, resp["rejection_reason"])
}

func TestPendingPostings(t *testing.T) {
	r := moderationEngine()
	rec, _ := testutil.MakeJSONRequest(nil, adminToken(t), r, "/moderation/vacancy/pending", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var vacancies []model.Vacancy
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vacancies))
	foundRejected := false
	for _, v := range vacancies {
		assert.False(t, v.IsPublished)
		if v.ID == database.TestVacancyRejected.ID {
			foundRejected = true
		}
	}
	// Rejection does not remove a posting from the queue, admins can revisit it
	assert.True(t, foundRejected, "rejected vacancy should still be pending")

	rec, _ = testutil.MakeJSONRequest(nil, adminToken(t), r, "/moderation/internship/pending", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
	var internships []model.Internship
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &internships))
	for _, i := range internships {
		assert.False(t, i.IsPublished)
	}
}

func TestPublishPosting(t *testing.T) {
	fixture := model.Vacancy{
		OwnerID: database.TestUserHR1.ID,
		EditableVacancyInfo: model.EditableVacancyInfo{
			Title: "Awaiting Approval",
		},
	}
	assert.NoError(t, testDB.Create(&fixture).Error)

	r := moderationEngine()
	endpoint := "/moderation/vacancy/" + itoa(fixture.ID) + "/publish"

	rec, resp := testutil.MakeJSONRequest(nil, adminToken(t), r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["is_published"])

	// Publishing twice is a no-op, not an error
	rec, resp = testutil.MakeJSONRequest(nil, adminToken(t), r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["is_published"])
}

func TestPublishPosting_ClearsRejection(t *testing.T) {
	fixture := model.Vacancy{
		OwnerID: database.TestUserHR1.ID,
		EditableVacancyInfo: model.EditableVacancyInfo{
			Title: "Rejected Then Approved",
		},
		Moderated: model.Moderated{RejectionReason: testutil.StringPtr("Salary range looks implausible")},
	}
	assert.NoError(t, testDB.Create(&fixture).Error)

	r := moderationEngine()
	rec, resp := testutil.MakeJSONRequest(nil, adminToken(t), r,
		"/moderation/vacancy/"+itoa(fixture.ID)+"/publish", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["is_published"])
	assert.NotContains(t, resp, "rejection_reason")
}

func TestRejectPosting(t *testing.T) {
	fixture := model.Internship{
		OwnerID: database.TestUserUniversity1.ID,
		EditableInternshipInfo: model.EditableInternshipInfo{
			Title: "Needs Work",
		},
		Moderated: model.Moderated{IsPublished: true},
	}
	assert.NoError(t, testDB.Create(&fixture).Error)

	r := moderationEngine()
	reason := "Position description is too thin"
	rec, resp := testutil.MakeJSONRequest(gin.H{"rejection_reason": reason}, adminToken(t), r,
		"/moderation/internship/"+itoa(fixture.ID)+"/reject", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// Rejection also takes a published posting off the listing
	assert.Equal(t, false, resp["is_published"])
	assert.Equal(t, reason, resp["rejection_reason"])
}

func TestRejectPosting_NotFound(t *testing.T) {
	r := moderationEngine()
	rec, _ := testutil.MakeJSONRequest(gin.H{"rejection_reason": "Does not matter, id is wrong"}, adminToken(t), r,
		"/moderation/vacancy/999999/reject", http.MethodPost)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishPosting_ForbiddenForOwner(t *testing.T) {
	fixture := model.Vacancy{
		OwnerID: database.TestUserHR1.ID,
		EditableVacancyInfo: model.EditableVacancyInfo{
			Title: "Owner Cannot Self Publish",
		},
	}
	assert.NoError(t, testDB.Create(&fixture).Error)

	hrToken, err := auth.GetAccessToken(t, testDB, database.TestUserHR1.Email, database.TestSeedPassword)
	assert.NoError(t, err)

	r := moderationEngine()
	rec, _ := testutil.MakeJSONRequest(nil, hrToken, r,
		"/moderation/vacancy/"+itoa(fixture.ID)+"/publish", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	reloaded := model.Vacancy{}
	assert.NoError(t, testDB.First(&reloaded, fixture.ID).Error)
	assert.False(t, reloaded.IsPublished, "publish attempt by the owner must not change state")
}
