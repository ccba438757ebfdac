package leadapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/leadapi"
	"github.com/sadopc/leadr/internal/leadapi/leadapitest"
)

func seed() []lead.Lead {
	return []lead.Lead{
		{ID: "1", Name: "Alice", Phone: "555", Source: "website", Status: lead.StatusNew, CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Name: "Bob", Phone: "556", Source: "referral", Status: lead.StatusContacted, CreatedAt: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)},
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://localhost:3000", "http://localhost:3000/api"},
		{"http://localhost:3000/", "http://localhost:3000/api"},
		{"https://crm.example.com/api", "https://crm.example.com/api"},
		{"https://crm.example.com/api//", "https://crm.example.com/api"},
		{"", "http://localhost:3000/api"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leadapi.NormalizeBaseURL(tt.in), tt.in)
	}
}

func TestListLeads(t *testing.T) {
	srv := leadapitest.New(t, seed()...)
	c := leadapi.NewClient(srv.URL)

	res, err := c.ListLeads(context.Background(), leadapi.ListOptions{Page: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, res.Leads, 2)
	assert.Equal(t, "Alice", res.Leads[0].Name)
	require.NotNil(t, res.Pagination)
	assert.Equal(t, 2, res.Pagination.Total)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/leads", calls[0].Path)
	assert.Contains(t, calls[0].Query, "page=1")
	assert.Contains(t, calls[0].Query, "limit=50")
}

func TestListLeadsDateQuery(t *testing.T) {
	srv := leadapitest.New(t, seed()...)
	c := leadapi.NewClient(srv.URL)

	start := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 12, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	res, err := c.ListLeads(context.Background(), leadapi.ListOptions{StartDate: start, EndDate: end})
	require.NoError(t, err)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Bob", res.Leads[0].Name)

	q := srv.Calls()[0].Query
	assert.Contains(t, q, "startDate=2024-01-11T00%3A00%3A00.000Z")
	assert.Contains(t, q, "endDate=2024-01-12T23%3A59%3A59.999Z")
}

func TestUpdateStatus(t *testing.T) {
	srv := leadapitest.New(t, seed()...)
	c := leadapi.NewClient(srv.URL)

	l, err := c.UpdateStatus(context.Background(), "1", lead.StatusContacted)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, lead.StatusContacted, l.Status)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, "/api/leads/1/status", calls[0].Path)
	assert.JSONEq(t, `{"status":"CONTACTED"}`, calls[0].Body)
}

func TestUpdateStatusFailure(t *testing.T) {
	srv := leadapitest.New(t, seed()...)
	srv.Fail(leadapitest.RouteStatus, http.StatusInternalServerError)
	c := leadapi.NewClient(srv.URL)

	_, err := c.UpdateStatus(context.Background(), "1", lead.StatusLost)
	require.Error(t, err)
	var apiErr *leadapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "status: 500")
}

func TestDeleteLead(t *testing.T) {
	srv := leadapitest.New(t, seed()...)
	c := leadapi.NewClient(srv.URL)

	require.NoError(t, c.DeleteLead(context.Background(), "2"))
	assert.Len(t, srv.Leads(), 1)

	err := c.DeleteLead(context.Background(), "missing")
	var apiErr *leadapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Lead not found", apiErr.Message)
}

func TestDeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := leadapi.NewClient(srv.URL)
	require.NoError(t, c.DeleteLead(context.Background(), "x"))
}

func TestCreateAndGetLead(t *testing.T) {
	srv := leadapitest.New(t)
	c := leadapi.NewClient(srv.URL)

	created, err := c.CreateLead(context.Background(), lead.NewLead{Name: "Cara", Phone: "557", Source: "walk-in"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, lead.StatusNew, created.Status)

	got, err := c.GetLead(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cara", got.Name)
}

func TestSuccessFalseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"quota exceeded"}`))
	}))
	defer srv.Close()

	c := leadapi.NewClient(srv.URL)
	_, err := c.ListLeads(context.Background(), leadapi.ListOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := leadapi.NewClient(srv.URL)
	_, err := c.GetLead(context.Background(), "1")
	var apiErr *leadapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "gateway down", apiErr.Message)
}

func TestSessionCookieSent(t *testing.T) {
	srv := leadapitest.New(t, seed()...)
	c := leadapi.NewClient(srv.URL, leadapi.WithSessionCookie("sid=abc123"))

	_, err := c.ListLeads(context.Background(), leadapi.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "sid=abc123", srv.Calls()[0].Cookie)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := leadapi.NewClient(srv.URL, leadapi.WithTimeout(50*time.Millisecond))
	_, err := c.ListLeads(context.Background(), leadapi.ListOptions{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "GET /leads"), err.Error())
}
