package sessionapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapdash/zapdash/internal/config"
	"go.uber.org/zap"
)

func newTestClient(gatewayURL, managerURL string) Client {
	return New(config.Config{
		SessionAPI: config.SessionAPIConfig{
			BaseURL:    gatewayURL,
			ManagerURL: managerURL,
			AdminKey:   "admin-key",
			Timeout:    5 * time.Second,
		},
	}, zap.NewNop(), nil)
}

func TestCreateInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/instances", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateInstanceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sales", req.Name)
		assert.Equal(t, "100", req.OrgID)
		assert.Equal(t, "7", req.UserID)
		assert.Equal(t, "tok-1", req.Token)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"instance_id": "ext-42"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	resp, err := client.CreateInstance(context.Background(), CreateInstanceRequest{
		Name:   "sales",
		OrgID:  "100",
		UserID: "7",
		Token:  "tok-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ext-42", resp.ExternalID)
}

func TestCreateInstanceRejectsMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	_, err := client.CreateInstance(context.Background(), CreateInstanceRequest{Name: "sales"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "create_instance", statusErr.Operation)
}

func TestCreateInstanceSurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"name taken"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	_, err := client.CreateInstance(context.Background(), CreateInstanceRequest{Name: "sales"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.Equal(t, "name taken", statusErr.Message)
}

func TestDeleteUserSendsAdminKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/admin/users/ext-42", r.URL.Path)
		assert.Equal(t, "admin-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	require.NoError(t, client.DeleteUser(context.Background(), "ext-42"))
}

func TestSetWebhookSendsInstanceToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/webhook", r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get("token"))

		var req WebhookRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://hooks.acme.test/wa", req.URL)
		assert.Equal(t, []string{"All"}, req.Events)
		assert.True(t, req.Active)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	err := client.SetWebhook(context.Background(), "tok-1", WebhookRequest{
		URL:    "https://hooks.acme.test/wa",
		Events: []string{"All"},
		Active: true,
	})
	require.NoError(t, err)
}

func TestFetchQRCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instance/qrcode", r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get("token"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"qrcode": "data:image/png;base64,abc"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	qr, err := client.FetchQRCode(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,abc", qr)
}

func TestFetchQRCodeNotReady(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"qrcode":""}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	// Empty code and 404 both mean "keep polling".
	_, err := client.FetchQRCode(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrQRNotReady)

	_, err = client.FetchQRCode(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrQRNotReady)
}

func TestFetchQRCodeOtherErrorsAreFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	_, err := client.FetchQRCode(context.Background(), "tok-1")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}
