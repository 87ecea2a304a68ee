package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"ga4export/internal/config"
	"ga4export/internal/report"
	"ga4export/internal/runlog"
	"ga4export/internal/sink"
)

const (
	TriggerHTTP     = "http"
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
	TriggerCLI      = "cli"
)

// RunRecorder stores the outcome of a run. Implemented by *runlog.Recorder.
type RunRecorder interface {
	Record(ctx context.Context, started time.Time, run runlog.Run) error
}

// Alerter is told about failed scheduled runs. Implemented by *notify.Alerts.
type Alerter interface {
	ExportFailed(ctx context.Context, at time.Time, trigger string, cause error) error
}

// Archiver keeps a history copy of each export. Implemented by
// *archive.Archiver.
type Archiver interface {
	Write(ctx context.Context, at time.Time, records []*report.Record) (string, error)
}

// Clients are the collaborators of one run. Runs, Alerts and Archive may be
// nil.
type Clients struct {
	Source  report.Source
	Sink    sink.Uploader
	Runs    RunRecorder
	Alerts  Alerter
	Archive Archiver
}

// ClientFactory builds fresh clients from configuration. It is called once
// per run.
type ClientFactory func(ctx context.Context, cfg *config.Config) (*Clients, error)

type Result struct {
	Records   int    `json:"records"`
	Bytes     int    `json:"bytes"`
	Container string `json:"container"`
	Blob      string `json:"blob"`
	Archive   string `json:"archive,omitempty"`
}

// GA4Export pulls the campaign and event reports, merges them and uploads
// the JSON document to <container>/ga4_data.json, overwriting it.
type GA4Export struct {
	cfg        *config.Config
	newClients ClientFactory
	newAlerter func(ctx context.Context, cfg *config.Config) (Alerter, error)
	log        *zap.Logger
	now        func() time.Time
}

func NewGA4Export(cfg *config.Config, factory ClientFactory, log *zap.Logger) *GA4Export {
	if factory == nil {
		factory = NewClients
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GA4Export{cfg: cfg, newClients: factory, newAlerter: newAlerter, log: log, now: time.Now}
}

// Document builds the merged document without uploading it.
func (e *GA4Export) Document(ctx context.Context) ([]byte, int, error) {
	clients, err := e.newClients(ctx, e.cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("build clients: %w", err)
	}
	doc, records, err := e.document(ctx, clients)
	return doc, len(records), err
}

func (e *GA4Export) document(ctx context.Context, clients *Clients) ([]byte, []*report.Record, error) {
	m := &report.Merger{Source: clients.Source, StartDate: e.cfg.StartDate}
	records, err := m.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	doc, err := report.Encode(records)
	if err != nil {
		return nil, nil, err
	}
	return doc, records, nil
}

// Run performs one export. The document is uploaded only when both reports
// were fetched; there are no retries.
func (e *GA4Export) Run(ctx context.Context, trigger string) (*Result, error) {
	_, res, err := e.runOnce(ctx, trigger)
	return res, err
}

func (e *GA4Export) runOnce(ctx context.Context, trigger string) (*Clients, *Result, error) {
	started := e.now()
	log := e.log.With(zap.String("trigger", trigger))

	clients, err := e.newClients(ctx, e.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build clients: %w", err)
	}

	res, err := e.run(ctx, log, clients, started)
	e.record(ctx, log, clients, started, trigger, res, err)
	if err != nil {
		return clients, nil, err
	}

	log.Info("GA4 export uploaded",
		zap.String("container", res.Container),
		zap.String("blob", res.Blob),
		zap.Int("records", res.Records),
		zap.Int("bytes", res.Bytes),
		zap.Duration("took", e.now().Sub(started)))
	return clients, res, nil
}

func (e *GA4Export) run(ctx context.Context, log *zap.Logger, clients *Clients, started time.Time) (*Result, error) {
	doc, records, err := e.document(ctx, clients)
	if err != nil {
		return nil, err
	}
	if err := clients.Sink.Upload(ctx, e.cfg.ContainerName, sink.BlobName, doc, true); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	res := &Result{
		Records:   len(records),
		Bytes:     len(doc),
		Container: e.cfg.ContainerName,
		Blob:      sink.BlobName,
	}

	// the snapshot is best effort; the document is already uploaded
	if clients.Archive != nil {
		loc, err := clients.Archive.Write(ctx, started, records)
		if err != nil {
			log.Warn("Failed to archive export snapshot", zap.Error(err), zap.String("location", loc))
		}
		res.Archive = loc
	}
	return res, nil
}

// record writes the run ledger entry. Ledger failures are logged only.
func (e *GA4Export) record(ctx context.Context, log *zap.Logger, clients *Clients, started time.Time, trigger string, res *Result, runErr error) {
	if clients.Runs == nil {
		return
	}
	run := runlog.Run{
		Trigger:    trigger,
		Status:     runlog.StatusOK,
		Container:  e.cfg.ContainerName,
		Blob:       sink.BlobName,
		DurationMs: e.now().Sub(started).Milliseconds(),
	}
	if res != nil {
		run.Records = res.Records
		run.Bytes = res.Bytes
	}
	if runErr != nil {
		run.Status = runlog.StatusFailed
		run.Error = runErr.Error()
	}
	if err := clients.Runs.Record(ctx, started, run); err != nil {
		log.Warn("Failed to record export run", zap.Error(err))
	}
}

// HandleSchedule is the EventBridge (every 4 hours) entry point. Failures
// are logged and alerted, never returned: a scheduled run has no caller.
func (e *GA4Export) HandleSchedule(ctx context.Context, ev events.CloudWatchEvent) error {
	_ = e.RunLogged(ctx, TriggerSchedule, zap.String("event_id", ev.ID))
	return nil
}

// RunLogged runs the export, logs a failure and publishes it to the alert
// topic. The run error is returned for display only.
func (e *GA4Export) RunLogged(ctx context.Context, trigger string, fields ...zap.Field) error {
	log := e.log.With(fields...)
	clients, _, err := e.runOnce(ctx, trigger)
	if err == nil {
		return nil
	}
	log.Error("GA4 export failed", zap.String("trigger", trigger), zap.Error(err))

	var alerts Alerter
	if clients != nil {
		alerts = clients.Alerts
	} else {
		// the factory itself failed; build only the alerter
		a, aerr := e.newAlerter(ctx, e.cfg)
		if aerr != nil {
			log.Warn("Failed to build alerter", zap.Error(aerr))
			return err
		}
		alerts = a
	}
	if alerts == nil {
		return err
	}
	if aerr := alerts.ExportFailed(ctx, e.now(), trigger, err); aerr != nil {
		log.Warn("Failed to publish export alert", zap.Error(aerr))
	}
	return err
}
