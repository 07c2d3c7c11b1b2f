// Package sessionapi is a thin HTTP client for the external WhatsApp
// session system: a gateway that provisions instances and a manager that
// owns webhooks, QR pairing and account removal.
package sessionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zapdash/zapdash/internal/config"
	"github.com/zapdash/zapdash/internal/observability/metrics"
	"go.uber.org/zap"
)

// Client is the boundary the rest of the application depends on. The
// external system is the source of truth for session state; callers keep
// only the identifiers and tokens it hands back.
type Client interface {
	CreateInstance(ctx context.Context, req CreateInstanceRequest) (*CreateInstanceResponse, error)
	DeleteUser(ctx context.Context, externalID string) error
	SetWebhook(ctx context.Context, token string, req WebhookRequest) error
	FetchQRCode(ctx context.Context, token string) (string, error)
}

// CreateInstanceRequest provisions a new instance on the gateway.
type CreateInstanceRequest struct {
	Name   string `json:"instance_name"`
	OrgID  string `json:"organization_id"`
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// CreateInstanceResponse carries the gateway-assigned identifier.
type CreateInstanceResponse struct {
	ExternalID string `json:"instance_id"`
}

// WebhookRequest configures event delivery for an instance.
type WebhookRequest struct {
	URL    string   `json:"webhookurl"`
	Events []string `json:"events"`
	Active bool     `json:"active"`
}

type client struct {
	log     *zap.Logger
	http    *http.Client
	metrics *metrics.Metrics

	baseURL    string
	managerURL string
	adminKey   string
}

// New builds a Client from application configuration.
func New(cfg config.Config, log *zap.Logger, m *metrics.Metrics) Client {
	return &client{
		log:        log.Named("sessionapi"),
		http:       &http.Client{Timeout: cfg.SessionAPI.Timeout},
		metrics:    m,
		baseURL:    strings.TrimRight(cfg.SessionAPI.BaseURL, "/"),
		managerURL: strings.TrimRight(cfg.SessionAPI.ManagerURL, "/"),
		adminKey:   cfg.SessionAPI.AdminKey,
	}
}

func (c *client) CreateInstance(ctx context.Context, req CreateInstanceRequest) (*CreateInstanceResponse, error) {
	var resp CreateInstanceResponse
	status, err := c.do(ctx, "create_instance", http.MethodPost, c.baseURL+"/instances", nil, req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ExternalID == "" {
		return nil, &StatusError{Operation: "create_instance", StatusCode: status, Message: "missing instance_id in response"}
	}
	return &resp, nil
}

func (c *client) DeleteUser(ctx context.Context, externalID string) error {
	headers := map[string]string{"Authorization": c.adminKey}
	url := c.managerURL + "/admin/users/" + externalID
	_, err := c.do(ctx, "delete_user", http.MethodDelete, url, headers, nil, nil)
	return err
}

func (c *client) SetWebhook(ctx context.Context, token string, req WebhookRequest) error {
	headers := map[string]string{"token": token}
	_, err := c.do(ctx, "set_webhook", http.MethodPut, c.managerURL+"/webhook", headers, req, nil)
	return err
}

// FetchQRCode returns the current pairing code for an instance. The manager
// answers with an empty code until the session is ready to pair, which is
// surfaced as ErrQRNotReady so callers can poll.
func (c *client) FetchQRCode(ctx context.Context, token string) (string, error) {
	headers := map[string]string{"token": token}

	var resp struct {
		QRCode string `json:"qrcode"`
	}
	status, err := c.do(ctx, "fetch_qr", http.MethodGet, c.managerURL+"/instance/qrcode", headers, nil, &resp)
	if err != nil {
		var statusErr *StatusError
		if isStatus(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return "", ErrQRNotReady
		}
		return "", err
	}
	if resp.QRCode == "" {
		c.log.Debug("qr code not ready", zap.Int("status", status))
		return "", ErrQRNotReady
	}
	return resp.QRCode, nil
}

// do executes one request against the external system. Non-2xx answers are
// returned as *StatusError with whatever detail the body carried.
func (c *client) do(ctx context.Context, operation, method, url string, headers map[string]string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("sessionapi: encode %s request: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, fmt.Errorf("sessionapi: build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordSessionAPIRequest(ctx, operation, 0)
		return 0, fmt.Errorf("sessionapi: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordSessionAPIRequest(ctx, operation, resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("sessionapi: read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("session api call failed",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
		)
		return resp.StatusCode, &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("sessionapi: decode %s response: %w", operation, err)
		}
	}

	return resp.StatusCode, nil
}

func errorMessage(raw []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
