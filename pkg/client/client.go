// Package client is a Go SDK for the growth-tracker HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a growth-tracker server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets an existing session token, skipping Login.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new growth-tracker client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Assessment mirrors the server's assessment record.
type Assessment struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Date      time.Time         `json:"date"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
	Scores    map[string]int    `json:"scores"`
	Notes     map[string]string `json:"notes"`
}

// User mirrors the server's user record.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// Trend mirrors the server's trend result.
type Trend struct {
	Increasing bool `json:"increasing"`
	Percentage int  `json:"percentage"`
}

// Summary is the analytics summary response.
type Summary struct {
	Total   int              `json:"total"`
	Average float64          `json:"average"`
	Latest  *Assessment      `json:"latest,omitempty"`
	Trends  map[string]Trend `json:"trends"`
}

// Chart is the analytics chart response.
type Chart struct {
	Labels   []string `json:"labels"`
	Datasets []struct {
		Area  string `json:"area"`
		Label string `json:"label"`
		Color string `json:"color"`
		Data  []int  `json:"data"`
	} `json:"datasets"`
}

// AreaInfo is the static display configuration for an area.
type AreaInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a server-reported failure.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// do performs a request and decodes the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !envelope.Success {
		apiErr := &APIError{Status: resp.StatusCode, Code: "unknown", Message: "request failed"}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}

// Login exchanges an API key for a session token, which the client
// then uses for all subsequent calls.
func (c *Client) Login(ctx context.Context, apiKey string) (*User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{"api_key": apiKey}, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out.User, nil
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// ListAssessments returns the assessment list, newest first. With
// refresh true the server reloads from its store first.
func (c *Client) ListAssessments(ctx context.Context, refresh bool) ([]Assessment, error) {
	path := "/api/v1/assessments"
	if refresh {
		path += "?refresh=true"
	}

	var out struct {
		Assessments []Assessment `json:"assessments"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Assessments, nil
}

// DeleteAssessment removes an assessment by id.
func (c *Client) DeleteAssessment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/assessments/"+url.PathEscape(id), nil, nil)
}

// Export downloads the full assessment list as pretty-printed JSON.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/assessments/export", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Code: "export_failed", Message: "export request failed"}
	}

	return io.ReadAll(resp.Body)
}

// StartDraft begins a fresh draft, discarding any prior one.
func (c *Client) StartDraft(ctx context.Context) (*Assessment, error) {
	var draft Assessment
	if err := c.do(ctx, http.MethodPost, "/api/v1/draft", nil, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Draft returns the in-progress draft.
func (c *Client) Draft(ctx context.Context) (*Assessment, error) {
	var draft Assessment
	if err := c.do(ctx, http.MethodGet, "/api/v1/draft", nil, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// SetScore writes a score into the draft; the server clamps it.
func (c *Client) SetScore(ctx context.Context, area string, value float64) (*Assessment, error) {
	var draft Assessment
	body := map[string]interface{}{"area": area, "value": value}
	if err := c.do(ctx, http.MethodPut, "/api/v1/draft/score", body, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// SetNote writes a note into the draft.
func (c *Client) SetNote(ctx context.Context, area, text string) (*Assessment, error) {
	var draft Assessment
	body := map[string]string{"area": area, "text": text}
	if err := c.do(ctx, http.MethodPut, "/api/v1/draft/note", body, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// SaveDraft persists the draft. Returns nil when no draft was in
// progress.
func (c *Client) SaveDraft(ctx context.Context) (*Assessment, error) {
	var saved Assessment
	if err := c.do(ctx, http.MethodPost, "/api/v1/draft/save", nil, &saved); err != nil {
		return nil, err
	}
	if saved.ID == "" {
		return nil, nil
	}
	return &saved, nil
}

// CancelDraft discards the in-progress draft.
func (c *Client) CancelDraft(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/draft", nil, nil)
}

// GetSummary returns the latest average and per-area trends.
func (c *Client) GetSummary(ctx context.Context, window int) (*Summary, error) {
	path := "/api/v1/analytics/summary"
	if window > 0 {
		path = fmt.Sprintf("%s?window=%d", path, window)
	}

	var out Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInsights returns generated observations about recent movement.
func (c *Client) GetInsights(ctx context.Context) ([]string, error) {
	var out struct {
		Insights []string `json:"insights"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/analytics/insights", nil, &out); err != nil {
		return nil, err
	}
	return out.Insights, nil
}

// GetChart returns oldest-first plot data for recent assessments.
func (c *Client) GetChart(ctx context.Context, limit int) (*Chart, error) {
	path := "/api/v1/analytics/chart"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var out Chart
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAreas returns the static area configuration.
func (c *Client) ListAreas(ctx context.Context) ([]AreaInfo, error) {
	var out struct {
		Areas []AreaInfo `json:"areas"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/areas", nil, &out); err != nil {
		return nil, err
	}
	return out.Areas, nil
}

// AreaQuestions returns the reflection questions for an area.
func (c *Client) AreaQuestions(ctx context.Context, area string) ([]string, error) {
	var out struct {
		Questions []string `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/areas/"+url.PathEscape(area)+"/questions", nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}
