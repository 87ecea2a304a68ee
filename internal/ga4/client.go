package ga4

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"ga4export/internal/report"
)

// Client runs reports against one GA4 property.
type Client struct {
	svc      *analyticsdata.Service
	property string // "properties/<id>"
}

// NewClient authenticates with a service-account JSON document.
func NewClient(ctx context.Context, propertyID string, credentialsJSON []byte) (*Client, error) {
	if len(strings.TrimSpace(string(credentialsJSON))) == 0 {
		return nil, fmt.Errorf("ga4: missing service account credentials")
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, analyticsdata.AnalyticsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("ga4: parse service account credentials: %w", err)
	}
	return NewClientWithOptions(ctx, propertyID, option.WithCredentials(creds))
}

func NewClientWithOptions(ctx context.Context, propertyID string, opts ...option.ClientOption) (*Client, error) {
	propertyID = strings.TrimPrefix(strings.TrimSpace(propertyID), "properties/")
	if propertyID == "" {
		return nil, fmt.Errorf("ga4: missing property id")
	}
	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ga4: new analyticsdata service: %w", err)
	}
	return &Client{svc: svc, property: "properties/" + propertyID}, nil
}

func (c *Client) Property() string { return c.property }

func (c *Client) RunReport(ctx context.Context, q report.Query) ([]report.Row, error) {
	resp, err := c.svc.Properties.RunReport(c.property, buildRequest(q)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ga4 runReport %s on %s: %w", q.Name, c.property, err)
	}

	rows := make([]report.Row, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		if r == nil {
			continue
		}
		row := report.Row{
			Dimensions: make([]string, 0, len(r.DimensionValues)),
			Metrics:    make([]string, 0, len(r.MetricValues)),
		}
		for _, d := range r.DimensionValues {
			if d == nil {
				row.Dimensions = append(row.Dimensions, "")
				continue
			}
			row.Dimensions = append(row.Dimensions, d.Value)
		}
		for _, m := range r.MetricValues {
			if m == nil {
				row.Metrics = append(row.Metrics, "")
				continue
			}
			row.Metrics = append(row.Metrics, m.Value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildRequest(q report.Query) *analyticsdata.RunReportRequest {
	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{
			StartDate: q.DateRange.StartDate,
			EndDate:   q.DateRange.EndDate,
		}},
	}
	for _, d := range q.Dimensions {
		req.Dimensions = append(req.Dimensions, &analyticsdata.Dimension{Name: d})
	}
	for _, m := range q.Metrics {
		req.Metrics = append(req.Metrics, &analyticsdata.Metric{Name: m})
	}
	if q.Filter != nil {
		req.DimensionFilter = &analyticsdata.FilterExpression{
			Filter: &analyticsdata.Filter{
				FieldName: q.Filter.FieldName,
				InListFilter: &analyticsdata.InListFilter{
					Values: append([]string(nil), q.Filter.Values...),
				},
			},
		}
	}
	return req
}
