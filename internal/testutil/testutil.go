package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/taskboard/internal/auth"
	"github.com/hugh/taskboard/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.UserTeam{},
		&models.Project{},
		&models.Task{},
		&models.Comment{},
		&models.Invitation{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// CreateTestUser creates a test user with a unique email
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Name:         "Test User",
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestTeam creates a team with the given user as OWNER
func CreateTestTeam(t *testing.T, db *gorm.DB, owner *models.User) *models.Team {
	t.Helper()

	team := &models.Team{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name: "Test Team",
		Members: []models.UserTeam{
			{UserID: owner.ID, Role: models.RoleOwner, Accepted: true},
		},
	}

	if err := db.Create(team).Error; err != nil {
		t.Fatalf("failed to create test team: %v", err)
	}

	return team
}

// AddTestMember adds a user to a team with the given role
func AddTestMember(t *testing.T, db *gorm.DB, team *models.Team, user *models.User, role string) *models.UserTeam {
	t.Helper()

	membership := &models.UserTeam{
		UserID:   user.ID,
		TeamID:   team.ID,
		Role:     role,
		Accepted: true,
	}

	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}

	return membership
}

// CreateTestProject creates a project in the given team
func CreateTestProject(t *testing.T, db *gorm.DB, teamID uuid.UUID) *models.Project {
	t.Helper()

	project := &models.Project{
		Base: models.Base{
			ID: uuid.New(),
		},
		Title:  "Test Project",
		TeamID: teamID,
	}

	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}

	return project
}

// CreateTestTask creates a task in the given project
func CreateTestTask(t *testing.T, db *gorm.DB, projectID uuid.UUID, status models.TaskStatus) *models.Task {
	t.Helper()

	task := &models.Task{
		Base: models.Base{
			ID: uuid.New(),
		},
		Title:     "Test Task",
		ProjectID: projectID,
		Status:    status,
	}

	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}

	return task
}

// CreateTestInvitation creates a PENDING invitation for the given email
func CreateTestInvitation(t *testing.T, db *gorm.DB, teamID uuid.UUID, email string, expiresAt time.Time) *models.Invitation {
	t.Helper()

	invitation := &models.Invitation{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:     email,
		TeamID:    teamID,
		Token:     uuid.New().String() + uuid.New().String(),
		Status:    models.InvitationPending,
		ExpiresAt: expiresAt,
	}

	if err := db.Create(invitation).Error; err != nil {
		t.Fatalf("failed to create test invitation: %v", err)
	}

	return invitation
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	User       *models.User
	Team       *models.Team
	Token      string
}

// NewTestContext creates a complete test setup with DB, user, team, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	user := CreateTestUser(t, db)
	team := CreateTestTeam(t, db, user)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		User:       user,
		Team:       team,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
