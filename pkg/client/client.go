// Package client is the Go SDK for the resin-prophet daemon's HTTP API.
// The MCP bridge and the TUI both consume the daemon through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// API types (mirrored from pkg/store and pkg/prophet to keep this
// package free of the CGO SQLite dependency)

// Cartridge mirrors the daemon's cartridge record.
type Cartridge struct {
	ID              string    `json:"id"`
	MaterialCode    string    `json:"material_code"`
	MaterialName    string    `json:"material_name"`
	InitialVolumeML float64   `json:"initial_volume_ml"`
	CurrentVolumeML float64   `json:"current_volume_ml"`
	PrinterID       string    `json:"printer_id,omitempty"`
	TenantID        string    `json:"tenant_id"`
	InstalledAt     time.Time `json:"installed_at"`
	LastUpdated     time.Time `json:"last_updated"`
	Status          string    `json:"status"`
}

// Alert levels as the daemon reports them.
const (
	AlertNone     = "none"
	AlertInfo     = "info"
	AlertWarning  = "warning"
	AlertCritical = "critical"
)

// Prediction mirrors the daemon's depletion forecast.
type Prediction struct {
	CartridgeID      string  `json:"cartridge_id"`
	MaterialCode     string  `json:"material_code"`
	MaterialName     string  `json:"material_name"`
	CurrentVolumeML  float64 `json:"current_volume_ml"`
	PercentRemaining float64 `json:"percent_remaining"`
	Status           string  `json:"status"`

	PrintsRemaining int        `json:"estimated_prints_remaining"`
	DaysRemaining   *float64   `json:"estimated_days_remaining,omitempty"`
	DepletionDate   *time.Time `json:"estimated_depletion_date,omitempty"`

	AlertLevel   string `json:"alert_level"`
	AlertMessage string `json:"alert_message"`

	QueuedJobsCount    int     `json:"queued_jobs_count"`
	QueuedJobsVolumeML float64 `json:"queued_jobs_volume_ml"`
}

// Client talks to a running resin-prophet daemon.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a new client.
// endpoint defaults to "http://127.0.0.1:8092" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8092"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Status is the daemon health response.
type Status struct {
	Status string `json:"status"`
}

// Ping checks the health of the daemon.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	if err := c.getJSON(ctx, "/v1/health", nil, &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// Predictions fetches the tenant's depletion forecasts, most urgent
// first.
func (c *Client) Predictions(ctx context.Context, tenantID string) ([]*Prediction, error) {
	var body struct {
		Predictions []*Prediction `json:"predictions"`
	}
	q := url.Values{"tenant_id": {tenantID}}
	if err := c.getJSON(ctx, "/v1/predictions", q, &body); err != nil {
		return nil, err
	}
	return body.Predictions, nil
}

// Predict fetches the forecast for one cartridge.
func (c *Client) Predict(ctx context.Context, cartridgeID, tenantID string) (*Prediction, error) {
	var pred Prediction
	q := url.Values{"tenant_id": {tenantID}}
	if err := c.getJSON(ctx, "/v1/predictions/"+url.PathEscape(cartridgeID), q, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

// StatusText fetches the rendered fleet status message.
func (c *Client) StatusText(ctx context.Context, tenantID string) (string, error) {
	return c.getText(ctx, "/v1/status", tenantID)
}

// AlertsText fetches the rendered alerts message.
func (c *Client) AlertsText(ctx context.Context, tenantID string) (string, error) {
	return c.getText(ctx, "/v1/alerts", tenantID)
}

// RegisterCartridgeRequest configures a cartridge registration.
type RegisterCartridgeRequest struct {
	CartridgeID     string  `json:"cartridge_id,omitempty"`
	MaterialCode    string  `json:"material_code"`
	MaterialName    string  `json:"material_name,omitempty"`
	TenantID        string  `json:"tenant_id"`
	PrinterID       string  `json:"printer_id,omitempty"`
	InitialVolumeML float64 `json:"initial_volume_ml,omitempty"`
	CurrentVolumeML float64 `json:"current_volume_ml,omitempty"`
}

// RegisterCartridge registers a new cartridge and returns the stored
// record plus the rendered confirmation text.
func (c *Client) RegisterCartridge(ctx context.Context, req RegisterCartridgeRequest) (*Cartridge, string, error) {
	var body struct {
		Cartridge *Cartridge `json:"cartridge"`
		Text      string     `json:"text"`
	}
	if err := c.postJSON(ctx, "/v1/cartridges", req, &body); err != nil {
		return nil, "", err
	}
	return body.Cartridge, body.Text, nil
}

// Consume records a resin consumption event against a cartridge.
func (c *Client) Consume(ctx context.Context, cartridgeID string, volumeML float64, tenantID string) error {
	req := map[string]any{
		"cartridge_id": cartridgeID,
		"tenant_id":    tenantID,
		"volume_ml":    volumeML,
	}
	return c.postJSON(ctx, "/v1/consume", req, nil)
}

// UsageCSV fetches the consumption ledger as CSV.
func (c *Client) UsageCSV(ctx context.Context, tenantID, materialCode string, windowDays int) (string, error) {
	q := url.Values{
		"tenant_id":     {tenantID},
		"material_code": {materialCode},
	}
	if windowDays > 0 {
		q.Set("window_days", strconv.Itoa(windowDays))
	}

	resp, err := c.get(ctx, "/v1/usage.csv", q)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read report: %w", err)
	}
	return string(data), nil
}

func (c *Client) getText(ctx context.Context, path, tenantID string) (string, error) {
	var body struct {
		Text string `json:"text"`
	}
	q := url.Values{"tenant_id": {tenantID}}
	if err := c.getJSON(ctx, path, q, &body); err != nil {
		return "", err
	}
	return body.Text, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	u := c.endpoint + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("daemon returned unexpected status %d", resp.StatusCode)
}
