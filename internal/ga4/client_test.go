package ga4

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"ga4export/internal/report"
)

type capturedRequest struct {
	Path string
	Body map[string]any
}

func newTestClient(t *testing.T, status int, response string) (*Client, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		captured = append(captured, capturedRequest{Path: r.URL.Path, Body: body})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClientWithOptions(context.Background(), "123456",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return c, &captured
}

func TestClient_RunReport_CampaignQuery(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{
		"rows": [
			{
				"dimensionValues": [{"value": "c1"}],
				"metricValues": [{"value": "1000"}, {"value": "50"}, {"value": "0.5"}, {"value": "25"}, {"value": "2.0"}, {"value": "3"}, {"value": "0.4"}]
			},
			{
				"dimensionValues": [{"value": "c2"}],
				"metricValues": [{"value": "10"}, {"value": "1"}, {"value": "0.1"}, {"value": "0.1"}, {"value": "0"}, {"value": "0"}, {"value": "1"}]
			}
		],
		"rowCount": 2
	}`)

	rows, err := c.RunReport(context.Background(), report.CampaignQuery("2024-01-01"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"c1"}, rows[0].Dimensions)
	assert.Equal(t, []string{"1000", "50", "0.5", "25", "2.0", "3", "0.4"}, rows[0].Metrics)
	assert.Equal(t, "c2", rows[1].Dimensions[0])

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, "/v1beta/properties/123456:runReport", req.Path)

	dateRanges := req.Body["dateRanges"].([]any)
	assert.Equal(t, map[string]any{"startDate": "2024-01-01", "endDate": "today"}, dateRanges[0])
	assert.Equal(t, []any{map[string]any{"name": "campaignId"}}, req.Body["dimensions"])
	assert.Len(t, req.Body["metrics"], 7)
	assert.NotContains(t, req.Body, "dimensionFilter")
}

func TestClient_RunReport_EventQuerySendsInListFilter(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{
		"rows": [{"dimensionValues": [{"value": "invitee_select_day"}], "metricValues": [{"value": "7"}]}]
	}`)

	rows, err := c.RunReport(context.Background(), report.EventQuery("2024-01-01"))
	require.NoError(t, err)
	require.Equal(t, []report.Row{{Dimensions: []string{"invitee_select_day"}, Metrics: []string{"7"}}}, rows)

	filter := (*captured)[0].Body["dimensionFilter"].(map[string]any)["filter"].(map[string]any)
	assert.Equal(t, "eventName", filter["fieldName"])
	assert.Equal(t,
		[]any{"invitee_select_day", "invitee_select_time", "invitee_meeting_scheduled"},
		filter["inListFilter"].(map[string]any)["values"])
}

func TestClient_RunReport_NoRows(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"kind": "analyticsData#runReport"}`)

	rows, err := c.RunReport(context.Background(), report.EventQuery("2024-01-01"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClient_RunReport_APIError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusForbidden, `{"error": {"code": 403, "message": "User does not have sufficient permissions for this property.", "status": "PERMISSION_DENIED"}}`)

	_, err := c.RunReport(context.Background(), report.CampaignQuery("2024-01-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "campaign_metrics")
	assert.Contains(t, err.Error(), "sufficient permissions")
}

func TestNewClientWithOptions_PropertyPrefix(t *testing.T) {
	c, err := NewClientWithOptions(context.Background(), "properties/42", option.WithoutAuthentication())
	require.NoError(t, err)
	assert.Equal(t, "properties/42", c.Property())

	_, err = NewClientWithOptions(context.Background(), " ", option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestNewClient_BadCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), "42", nil)
	assert.Error(t, err)

	_, err = NewClient(context.Background(), "42", []byte(`{not json`))
	assert.Error(t, err)
}
