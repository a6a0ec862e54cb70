package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "github.com/jinxovich/mosprom-sracaton/internal/model"
	"github.com/jinxovich/mosprom-sracaton/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test users
var (
	TestAdminUser       m.User
	TestUserHR1         m.User
	TestUserHR2         m.User
	TestUserUniversity1 m.User
	TestUserUniversity2 m.User
	TestUserApplicant1  m.User
	TestUserApplicant2  m.User

	// Shared plain password for every seeded user
	TestSeedPassword = "SeedPass123!"

	// Exported seeded postings
	TestVacancyPublished    m.Vacancy
	TestVacancyPending      m.Vacancy
	TestVacancyRejected     m.Vacancy
	TestInternshipPublished m.Internship
	TestInternshipPending   m.Internship

	// Application from TestUserApplicant2 to TestVacancyPublished
	TestApplication1 m.Application
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts one user per role state plus a handful of postings
// in every moderation state, if not done already.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}

	// Ignore admin user that might got created during NewDBInstance
	if userCount > 1 {
		return loadTestData(db)
	}

	rejectedReason := "Company registry number could not be verified"
	userSpecs := []struct {
		email           string
		role            string
		isActive        bool
		rejectionReason *string
	}{
		{"admin@example.com", m.RoleAdmin, true, nil},
		{"hr1@example.com", m.RoleHR, true, nil},
		{"hr2@example.com", m.RoleHR, false, nil},
		{"uni1@example.com", m.RoleUniversity, true, nil},
		{"uni2@example.com", m.RoleUniversity, false, &rejectedReason},
		{"applicant1@example.com", m.RoleApplicant, true, nil},
		{"applicant2@example.com", m.RoleApplicant, true, nil},
	}

	// Pre-hash shared password for all seeded users
	hashedPwd, errHash := utilities.HashPassword(TestSeedPassword)
	if errHash != nil {
		return errHash
	}

	users := make([]m.User, 0, len(userSpecs))
	for _, s := range userSpecs {
		users = append(users, m.User{
			ID:              uuid.New(),
			Email:           s.email,
			Password:        hashedPwd,
			Role:            s.role,
			IsActive:        s.isActive,
			RejectionReason: s.rejectionReason,
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return err
	}

	assignTestUsers(users)

	salaryMin, salaryMax := 90000.0, 140000.0
	vacancyRejectedReason := "Posting text contains contact details, move them to the application flow"

	vacancies := []m.Vacancy{
		{
			OwnerID: TestUserHR1.ID,
			EditableVacancyInfo: m.EditableVacancyInfo{
				Title:            "Go Backend Engineer",
				CompanyName:      "Mosprom Metalworks",
				Responsibilities: "Develop internal services for production planning.",
				Requirements:     "Go, PostgreSQL, message queues",
				Conditions:       "Hybrid, medical insurance",
				SalaryMin:        &salaryMin,
				SalaryMax:        &salaryMax,
				WorkLocation:     "Moscow",
				WorkSchedule:     "full-time",
				Tags:             pq.StringArray{"go", "backend"},
			},
			Moderated: m.Moderated{IsPublished: true},
		},
		{
			OwnerID: TestUserHR1.ID,
			EditableVacancyInfo: m.EditableVacancyInfo{
				Title:        "Process Engineer",
				CompanyName:  "Mosprom Metalworks",
				WorkLocation: "Moscow",
				WorkSchedule: "full-time",
				Tags:         pq.StringArray{"engineering"},
			},
		},
		{
			OwnerID: TestUserHR1.ID,
			EditableVacancyInfo: m.EditableVacancyInfo{
				Title:        "Sales Manager",
				CompanyName:  "Mosprom Metalworks",
				WorkLocation: "Moscow",
				WorkSchedule: "shift",
			},
			Moderated: m.Moderated{RejectionReason: &vacancyRejectedReason},
		},
	}
	if err := db.Create(&vacancies).Error; err != nil {
		return err
	}
	TestVacancyPublished = vacancies[0]
	TestVacancyPending = vacancies[1]
	TestVacancyRejected = vacancies[2]

	internships := []m.Internship{
		{
			OwnerID: TestUserUniversity1.ID,
			EditableInternshipInfo: m.EditableInternshipInfo{
				Title:        "Metallurgy Summer Internship",
				CompanyName:  "Moscow Polytech",
				WorkLocation: "Moscow",
				WorkSchedule: "metallurgy",
			},
			Moderated: m.Moderated{IsPublished: true},
		},
		{
			OwnerID: TestUserUniversity1.ID,
			EditableInternshipInfo: m.EditableInternshipInfo{
				Title:        "Quality Control Internship",
				CompanyName:  "Moscow Polytech",
				WorkLocation: "Moscow",
				WorkSchedule: "quality",
			},
		},
	}
	if err := db.Create(&internships).Error; err != nil {
		return err
	}
	TestInternshipPublished = internships[0]
	TestInternshipPending = internships[1]

	vacancyID := TestVacancyPublished.ID
	TestApplication1 = m.Application{
		ApplicantID: TestUserApplicant2.ID,
		VacancyID:   &vacancyID,
		ResumeData: m.ResumeData{
			"full_name":  "Petr Sidorov",
			"experience": "3 years of backend development",
		},
	}
	if err := db.Create(&TestApplication1).Error; err != nil {
		return err
	}

	return nil
}

// loadTestData reloads the exported fixtures from an already seeded database.
func loadTestData(db *DBinstanceStruct) error {
	users := []m.User{}
	if err := db.Find(&users).Error; err != nil {
		return err
	}
	assignTestUsers(users)

	vacancies := []m.Vacancy{}
	if err := db.Order("id ASC").Find(&vacancies).Error; err != nil {
		return err
	}
	for _, v := range vacancies {
		switch v.Title {
		case "Go Backend Engineer":
			TestVacancyPublished = v
		case "Process Engineer":
			TestVacancyPending = v
		case "Sales Manager":
			TestVacancyRejected = v
		}
	}

	internships := []m.Internship{}
	if err := db.Order("id ASC").Find(&internships).Error; err != nil {
		return err
	}
	for _, i := range internships {
		switch i.Title {
		case "Metallurgy Summer Internship":
			TestInternshipPublished = i
		case "Quality Control Internship":
			TestInternshipPending = i
		}
	}

	return db.Where("applicant_id = ?", TestUserApplicant2.ID).First(&TestApplication1).Error
}

func assignTestUsers(users []m.User) {
	for _, u := range users {
		switch u.Email {
		case "admin@example.com":
			TestAdminUser = u
		case "hr1@example.com":
			TestUserHR1 = u
		case "hr2@example.com":
			TestUserHR2 = u
		case "uni1@example.com":
			TestUserUniversity1 = u
		case "uni2@example.com":
			TestUserUniversity2 = u
		case "applicant1@example.com":
			TestUserApplicant1 = u
		case "applicant2@example.com":
			TestUserApplicant2 = u
		}
	}
}
