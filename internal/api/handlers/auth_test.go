package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/taskboard/internal/api/dto"
	"github.com/hugh/taskboard/internal/api/handlers"
	"github.com/hugh/taskboard/internal/api/middleware"
	"github.com/hugh/taskboard/internal/auth"
	"github.com/hugh/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := handlers.NewAuthHandler(authService, nil, "http://localhost:3000")

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", handler.Register)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Post("/api/v1/auth/logout", handler.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/api/v1/me", handler.Me)
	})

	return r, tc
}

func TestAuthHandler_Register(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("registers new user", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", map[string]interface{}{
			"email":    "alice@example.com",
			"password": "password1234",
			"name":     "Alice",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code, "Body: %s", rr.Body.String())

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "alice@example.com", resp.User.Email)
		assert.Equal(t, "Alice", resp.User.Name)

		// Session cookie is set alongside the token
		cookies := rr.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "token", cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    "dupe@example.com",
			"password": "password1234",
			"name":     "Dupe",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)

		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("rejects invalid body", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", map[string]interface{}{
			"email": "no-password@example.com",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	register := map[string]interface{}{
		"email":    "carol@example.com",
		"password": "password1234",
		"name":     "Carol",
	}
	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", register)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("logs in with correct credentials", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "carol@example.com",
			"password": "password1234",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "Body: %s", rr.Body.String())

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "carol@example.com",
			"password": "wrong-password",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects unknown email", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "password1234",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("returns the session user", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/me", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "Body: %s", rr.Body.String())

		var user dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &user)
		assert.Equal(t, tc.User.ID.String(), user.ID)
		assert.Equal(t, tc.User.Email, user.Email)
	})

	t.Run("rejects missing session", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
