package report

import (
	"context"
	"fmt"
)

// GA4 field names used by the two reports.
const (
	DimensionCampaignID = "campaignId"
	DimensionEventName  = "eventName"
	MetricEventCount    = "eventCount"

	// EndDateToday is resolved by the API on every run.
	EndDateToday = "today"
)

// CampaignMetrics is the metric list of the campaign report. Order matters:
// ParseMetricRows reads the values positionally.
var CampaignMetrics = []string{
	"advertiserAdImpressions",
	"advertiserAdClicks",
	"advertiserAdCostPerClick",
	"advertiserAdCost",
	"returnOnAdSpend",
	"keyEvents",
	"bounceRate",
}

// TrackedEvents is the allow-list for the event report.
var TrackedEvents = []string{
	"invitee_select_day",
	"invitee_select_time",
	"invitee_meeting_scheduled",
}

type DateRange struct {
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD or "today"
}

// InListFilter keeps rows whose FieldName value is one of Values.
type InListFilter struct {
	FieldName string
	Values    []string
}

type Query struct {
	Name       string // for logs and errors only
	Dimensions []string
	Metrics    []string
	DateRange  DateRange
	Filter     *InListFilter
}

// Row is one result row: values are positional, matching Query.Dimensions
// and Query.Metrics.
type Row struct {
	Dimensions []string
	Metrics    []string
}

// Source runs a report query against the analytics API.
type Source interface {
	RunReport(ctx context.Context, q Query) ([]Row, error)
}

func CampaignQuery(startDate string) Query {
	return Query{
		Name:       "campaign_metrics",
		Dimensions: []string{DimensionCampaignID},
		Metrics:    append([]string(nil), CampaignMetrics...),
		DateRange:  DateRange{StartDate: startDate, EndDate: EndDateToday},
	}
}

func EventQuery(startDate string) Query {
	return Query{
		Name:       "event_counts",
		Dimensions: []string{DimensionEventName},
		Metrics:    []string{MetricEventCount},
		DateRange:  DateRange{StartDate: startDate, EndDate: EndDateToday},
		Filter: &InListFilter{
			FieldName: DimensionEventName,
			Values:    append([]string(nil), TrackedEvents...),
		},
	}
}

// ShapeError reports a result row that does not carry the values the query
// asked for.
type ShapeError struct {
	Query      string
	Row        int
	Dimensions int
	Metrics    int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("report %s: row %d has %d dimensions and %d metrics", e.Query, e.Row, e.Dimensions, e.Metrics)
}
