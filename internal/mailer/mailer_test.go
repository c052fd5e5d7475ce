package mailer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugh/taskboard/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendMailer_SendInvitation(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := mailer.NewResendMailer("test-api-key", "noreply@taskboard.local").WithEndpoint(srv.URL)

	err := m.SendInvitation(context.Background(), "bob@example.com", "Acme", "Alice", "http://localhost:3000/invitations/tok123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-api-key", gotAuth)
	assert.Equal(t, "noreply@taskboard.local", gotBody["from"])
	assert.Equal(t, []interface{}{"bob@example.com"}, gotBody["to"])
	assert.Contains(t, gotBody["subject"], "Acme")
	assert.Contains(t, gotBody["html"], "Alice")
	assert.Contains(t, gotBody["html"], "http://localhost:3000/invitations/tok123")
}

func TestResendMailer_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := mailer.NewResendMailer("test-api-key", "noreply@taskboard.local").WithEndpoint(srv.URL)

	err := m.SendInvitation(context.Background(), "bob@example.com", "Acme", "Alice", "http://example.com/x")
	assert.Error(t, err)
}
