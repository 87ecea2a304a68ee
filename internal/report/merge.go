package report

import (
	"context"
	"encoding/json"
	"fmt"
)

// ParseMetricRows maps campaign report rows positionally: dimension 0 is the
// campaign id, metrics 0..6 follow CampaignMetrics. Row order is preserved.
func ParseMetricRows(rows []Row) ([]MetricRow, error) {
	out := make([]MetricRow, 0, len(rows))
	for i, r := range rows {
		if len(r.Dimensions) < 1 || len(r.Metrics) < len(CampaignMetrics) {
			return nil, &ShapeError{Query: "campaign_metrics", Row: i, Dimensions: len(r.Dimensions), Metrics: len(r.Metrics)}
		}
		out = append(out, MetricRow{
			CampaignID:  r.Dimensions[0],
			Impressions: r.Metrics[0],
			Clicks:      r.Metrics[1],
			CPC:         r.Metrics[2],
			Cost:        r.Metrics[3],
			ROAS:        r.Metrics[4],
			KeyEvents:   r.Metrics[5],
			BounceRate:  r.Metrics[6],
		})
	}
	return out, nil
}

func ParseEventCounts(rows []Row) ([]EventCount, error) {
	out := make([]EventCount, 0, len(rows))
	for i, r := range rows {
		if len(r.Dimensions) < 1 || len(r.Metrics) < 1 {
			return nil, &ShapeError{Query: "event_counts", Row: i, Dimensions: len(r.Dimensions), Metrics: len(r.Metrics)}
		}
		out = append(out, EventCount{EventName: r.Dimensions[0], Count: r.Metrics[0]})
	}
	return out, nil
}

// Merge builds one Record per campaign and copies every event count onto
// every record. Event counts are date-range totals with no campaign
// dimension, so there is nothing to join on.
func Merge(metrics []MetricRow, events []EventCount) []*Record {
	records := make([]*Record, 0, len(metrics))
	for _, m := range metrics {
		records = append(records, NewRecord(m))
	}
	for _, ev := range events {
		for _, r := range records {
			r.Set(ev.EventName, ev.Count)
		}
	}
	return records
}

// Encode serializes records as a JSON array. No records encode as "[]".
func Encode(records []*Record) ([]byte, error) {
	if records == nil {
		records = []*Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return b, nil
}

// Merger fetches the campaign and event reports and merges them.
type Merger struct {
	Source    Source
	StartDate string
}

// Fetch runs both queries in sequence. Any failure aborts the whole fetch.
func (m *Merger) Fetch(ctx context.Context) ([]*Record, error) {
	campaignRows, err := m.Source.RunReport(ctx, CampaignQuery(m.StartDate))
	if err != nil {
		return nil, fmt.Errorf("run campaign report: %w", err)
	}
	metrics, err := ParseMetricRows(campaignRows)
	if err != nil {
		return nil, err
	}

	eventRows, err := m.Source.RunReport(ctx, EventQuery(m.StartDate))
	if err != nil {
		return nil, fmt.Errorf("run event report: %w", err)
	}
	events, err := ParseEventCounts(eventRows)
	if err != nil {
		return nil, err
	}

	return Merge(metrics, events), nil
}
