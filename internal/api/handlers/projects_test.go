package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/taskboard/internal/api/handlers"
	"github.com/hugh/taskboard/internal/api/middleware"
	"github.com/hugh/taskboard/internal/database/models"
	"github.com/hugh/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProjectTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))

	handler := handlers.NewProjectHandler(tc.DB)
	r.Route("/api/v1/projects", func(r chi.Router) {
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.Get)
	})

	return r, tc
}

func TestProjectHandler_Create(t *testing.T) {
	router, tc := setupProjectTestRouter(t)
	defer tc.Cleanup()

	t.Run("member creates project", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/projects", map[string]interface{}{
			"title":   "Website Redesign",
			"team_id": tc.Team.ID.String(),
			"tags":    "design,frontend",
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code, "Body: %s", rr.Body.String())

		var project models.Project
		testutil.ParseJSONResponse(t, rr, &project)
		assert.Equal(t, "Website Redesign", project.Title)
		assert.Equal(t, tc.Team.ID, project.TeamID)
		assert.Equal(t, "design,frontend", project.Tags)
	})

	t.Run("non-member gets 403", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB)
		outsiderToken := testutil.GenerateTestToken(t, tc.JWTService, outsider)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/projects", map[string]interface{}{
			"title":   "Sneaky Project",
			"team_id": tc.Team.ID.String(),
		}, outsiderToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/projects", map[string]interface{}{
			"team_id": tc.Team.ID.String(),
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects invalid team id", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/projects", map[string]interface{}{
			"title":   "Project",
			"team_id": "not-a-uuid",
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestProjectHandler_Get(t *testing.T) {
	router, tc := setupProjectTestRouter(t)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Team.ID)
	testutil.CreateTestTask(t, tc.DB, project.ID, models.TaskStatusToDo)
	testutil.CreateTestTask(t, tc.DB, project.ID, models.TaskStatusInProgress)

	t.Run("member gets board view", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects/"+project.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "Body: %s", rr.Body.String())

		var got models.Project
		testutil.ParseJSONResponse(t, rr, &got)
		assert.Equal(t, project.ID, got.ID)
		assert.Len(t, got.Tasks, 2)
		require.NotNil(t, got.Team)
		require.Len(t, got.Team.Members, 1)
		require.NotNil(t, got.Team.Members[0].User)
		assert.Equal(t, tc.User.Email, got.Team.Members[0].User.Email)
	})

	t.Run("non-member gets 403", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB)
		outsiderToken := testutil.GenerateTestToken(t, tc.JWTService, outsider)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects/"+project.ID.String(), nil, outsiderToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown project gets 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects/"+uuid.New().String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid uuid gets 400", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects/not-a-uuid", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
