package leadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/leadr/internal/lead"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:3000"

// APIError is returned for non-2xx responses and for 2xx envelopes that
// report success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error! status: %d: %s", e.StatusCode, e.Message)
}

// Pagination is the paging block of the list envelope.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListOptions are the query parameters for GET /leads.
type ListOptions struct {
	Page      int
	Limit     int
	StartDate time.Time
	EndDate   time.Time
}

// ListResult is one page of leads.
type ListResult struct {
	Leads      []lead.Lead
	Pagination *Pagination
}

type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
}

// Client talks to the lead REST API.
type Client struct {
	baseURL    string
	cookie     string
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithSessionCookie sends a fixed Cookie header (e.g. "connect.sid=...") on
// every request, standing in for the browser's credentialed session.
func WithSessionCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// NewClient creates a client for baseURL. The base is normalised the way the
// web console does it: trailing slashes go and "/api" is appended once.
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:    NormalizeBaseURL(baseURL),
		httpClient: &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBaseURL trims trailing slashes and ensures an "/api" suffix.
func NormalizeBaseURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		raw = DefaultBaseURL
	}
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.HasSuffix(trimmed, "/api") {
		return trimmed
	}
	return trimmed + "/api"
}

func (c *Client) BaseURL() string { return c.baseURL }

// ListLeads fetches one page of leads.
func (c *Client) ListLeads(ctx context.Context, opts ListOptions) (*ListResult, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if !opts.StartDate.IsZero() {
		q.Set("startDate", formatQueryTime(opts.StartDate))
	}
	if !opts.EndDate.IsZero() {
		q.Set("endDate", formatQueryTime(opts.EndDate))
	}

	path := "/leads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var leads []lead.Lead
	env, err := c.do(ctx, http.MethodGet, path, nil, &leads)
	if err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []lead.Lead{}
	}
	return &ListResult{Leads: leads, Pagination: env.Pagination}, nil
}

func (c *Client) GetLead(ctx context.Context, id string) (*lead.Lead, error) {
	var l lead.Lead
	if _, err := c.do(ctx, http.MethodGet, "/leads/"+url.PathEscape(id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) CreateLead(ctx context.Context, in lead.NewLead) (*lead.Lead, error) {
	var l lead.Lead
	if _, err := c.do(ctx, http.MethodPost, "/leads", in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateStatus issues PATCH /leads/{id}/status and returns the server's copy
// of the lead. The returned lead may be nil when the backend sends no data.
func (c *Client) UpdateStatus(ctx context.Context, id string, status lead.Status) (*lead.Lead, error) {
	body := map[string]string{"status": string(status)}
	var l lead.Lead
	env, err := c.do(ctx, http.MethodPatch, "/leads/"+url.PathEscape(id)+"/status", body, &l)
	if err != nil {
		return nil, err
	}
	if env == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}
	return &l, nil
}

func (c *Client) DeleteLead(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/leads/"+url.PathEscape(id), nil, nil)
	return err
}

func formatQueryTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// do sends the request and unwraps the {success, data} envelope into data.
// An empty or 204 body counts as success with a nil envelope.
func (c *Client) do(ctx context.Context, method, path string, body any, data any) (*envelope, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp envelope
		if json.Unmarshal(respBody, &errResp) == nil {
			if msg := firstNonEmpty(errResp.Error, errResp.Message); msg != "" {
				return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: firstNonEmpty(env.Error, env.Message, "request failed")}
	}
	if data != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}
	}
	return &env, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
