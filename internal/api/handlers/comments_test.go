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

func setupCommentTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))

	handler := handlers.NewCommentHandler(tc.DB)
	r.Route("/api/v1/tasks/{id}/comments", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
	})

	return r, tc
}

func TestCommentHandler_Create(t *testing.T) {
	router, tc := setupCommentTestRouter(t)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Team.ID)
	task := testutil.CreateTestTask(t, tc.DB, project.ID, models.TaskStatusToDo)

	t.Run("member adds comment", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/tasks/"+task.ID.String()+"/comments", map[string]interface{}{
			"content": "Looks good to me",
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code, "Body: %s", rr.Body.String())

		var comment models.Comment
		testutil.ParseJSONResponse(t, rr, &comment)
		assert.Equal(t, "Looks good to me", comment.Content)
		assert.Equal(t, task.ID, comment.TaskID)
		assert.Equal(t, tc.User.ID, comment.AuthorID)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/tasks/"+task.ID.String()+"/comments", map[string]interface{}{
			"content": "",
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("non-member gets 403", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB)
		outsiderToken := testutil.GenerateTestToken(t, tc.JWTService, outsider)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/tasks/"+task.ID.String()+"/comments", map[string]interface{}{
			"content": "Let me in",
		}, outsiderToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown task gets 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/tasks/"+uuid.New().String()+"/comments", map[string]interface{}{
			"content": "Hello?",
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCommentHandler_List(t *testing.T) {
	router, tc := setupCommentTestRouter(t)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Team.ID)
	task := testutil.CreateTestTask(t, tc.DB, project.ID, models.TaskStatusToDo)

	for _, content := range []string{"first", "second", "third"} {
		comment := models.Comment{Content: content, TaskID: task.ID, AuthorID: tc.User.ID}
		require.NoError(t, tc.DB.Create(&comment).Error)
	}

	t.Run("lists comments oldest first with authors", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/tasks/"+task.ID.String()+"/comments", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "Body: %s", rr.Body.String())

		var comments []models.Comment
		testutil.ParseJSONResponse(t, rr, &comments)
		require.Len(t, comments, 3)
		assert.Equal(t, "first", comments[0].Content)
		assert.Equal(t, "third", comments[2].Content)
		require.NotNil(t, comments[0].Author)
		assert.Equal(t, tc.User.Email, comments[0].Author.Email)
	})

	t.Run("non-member gets 403", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB)
		outsiderToken := testutil.GenerateTestToken(t, tc.JWTService, outsider)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/tasks/"+task.ID.String()+"/comments", nil, outsiderToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
