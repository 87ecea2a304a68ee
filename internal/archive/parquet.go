package archive

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"ga4export/internal/report"
)

// SnapshotRow matches the Glue table columns. One row per campaign.
type SnapshotRow struct {
	ExportedAt              string  `parquet:"name=exported_at, type=BYTE_ARRAY, convertedtype=UTF8"` // RFC3339
	CampaignID              string  `parquet:"name=campaign_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Impressions             int64   `parquet:"name=impressions, type=INT64"`
	Clicks                  int64   `parquet:"name=clicks, type=INT64"`
	CPC                     float64 `parquet:"name=cpc, type=DOUBLE"`
	Cost                    float64 `parquet:"name=cost, type=DOUBLE"`
	ROAS                    float64 `parquet:"name=roas, type=DOUBLE"`
	KeyEvents               float64 `parquet:"name=key_events, type=DOUBLE"`
	BounceRate              float64 `parquet:"name=bounce_rate, type=DOUBLE"`
	InviteeSelectDay        int64   `parquet:"name=invitee_select_day, type=INT64"`
	InviteeSelectTime       int64   `parquet:"name=invitee_select_time, type=INT64"`
	InviteeMeetingScheduled int64   `parquet:"name=invitee_meeting_scheduled, type=INT64"`
}

// Columns are the non-partition columns of SnapshotRow, in order.
var Columns = []string{
	"exported_at",
	"campaign_id",
	"impressions",
	"clicks",
	"cpc",
	"cost",
	"roas",
	"key_events",
	"bounce_rate",
	"invitee_select_day",
	"invitee_select_time",
	"invitee_meeting_scheduled",
}

// PartitionKey is the only partition column; its value is the export day.
const PartitionKey = "dt"

// Rows converts merged records into typed rows. A tracked event missing from
// a record is zero.
func Rows(records []*report.Record, at time.Time) ([]SnapshotRow, error) {
	out := make([]SnapshotRow, 0, len(records))
	for i, r := range records {
		p := &numParser{rec: r}
		row := SnapshotRow{
			ExportedAt:              at.UTC().Format(time.RFC3339),
			CampaignID:              p.str(report.FieldCampaignID),
			Impressions:             p.int(report.FieldImpressions),
			Clicks:                  p.int(report.FieldClicks),
			CPC:                     p.float(report.FieldCPC),
			Cost:                    p.float(report.FieldCost),
			ROAS:                    p.float(report.FieldROAS),
			KeyEvents:               p.float(report.FieldKeyEvents),
			BounceRate:              p.float(report.FieldBounceRate),
			InviteeSelectDay:        p.int("invitee_select_day"),
			InviteeSelectTime:       p.int("invitee_select_time"),
			InviteeMeetingScheduled: p.int("invitee_meeting_scheduled"),
		}
		if p.err != nil {
			return nil, fmt.Errorf("record %d: %w", i, p.err)
		}
		out = append(out, row)
	}
	return out, nil
}

// numParser keeps the first parse error.
type numParser struct {
	rec *report.Record
	err error
}

func (p *numParser) str(name string) string {
	v, _ := p.rec.Get(name)
	return v
}

func (p *numParser) int(name string) int64 {
	v, ok := p.rec.Get(name)
	if !ok || v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("field %s: %w", name, err)
	}
	return n
}

func (p *numParser) float(name string) float64 {
	v, ok := p.rec.Get(name)
	if !ok || v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("field %s: %w", name, err)
	}
	return f
}

// EncodeParquet writes rows to a temporary local file and returns its bytes.
func EncodeParquet(rows []SnapshotRow) ([]byte, error) {
	localPath := filepath.Join(os.TempDir(), "ga4_snapshot_"+randHex(8)+".parquet")
	defer func() { _ = os.Remove(localPath) }()

	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return nil, fmt.Errorf("parquet file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(SnapshotRow), 1)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = 0 // uncompressed

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return nil, fmt.Errorf("parquet write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet write stop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("parquet close: %w", err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read parquet tmp: %w", err)
	}
	return data, nil
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
