package funcapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ga4export/internal/etl"
	"ga4export/internal/handlers"
)

// Exporter is implemented by *etl.GA4Export.
type Exporter interface {
	Run(ctx context.Context, trigger string) (*etl.Result, error)
	RunLogged(ctx context.Context, trigger string, fields ...zap.Field) error
}

// InvocationRequest is the payload the Functions host posts for non-HTTP
// triggers.
type InvocationRequest struct {
	Data     map[string]json.RawMessage `json:"Data"`
	Metadata map[string]json.RawMessage `json:"Metadata"`
}

type InvocationResponse struct {
	Outputs     map[string]any `json:"Outputs"`
	Logs        []string       `json:"Logs"`
	ReturnValue any            `json:"ReturnValue"`
}

// timerInfo is the "timer" binding data of a timer trigger.
type timerInfo struct {
	IsPastDue bool `json:"IsPastDue"`
}

// Server is an Azure Functions custom handler. Function routes:
//
//	/api/GAdeemy     HTTP, greeting demo
//	/api/ga4_export  HTTP, runs the export
//	/ga4_timer       timer (every 4 hours, also on startup)
type Server struct {
	export Exporter
	log    *zap.Logger
	router chi.Router
}

func NewServer(export Exporter, log *zap.Logger) *Server {
	s := &Server{export: export, log: log, router: chi.NewRouter()}
	s.registerRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.health)
	s.router.HandleFunc("/api/GAdeemy", s.greeting)
	s.router.HandleFunc("/api/ga4_export", s.exportHTTP)
	s.router.Post("/ga4_timer", s.exportTimer)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, handlers.Health())
}

func (s *Server) greeting(w http.ResponseWriter, r *http.Request) {
	s.log.Info("Greeting request", zap.String("method", r.Method))

	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	name := handlers.GreetingName(r.URL.Query().Get("name"), body)
	writeText(w, http.StatusOK, handlers.GreetingBody(name))
}

func (s *Server) exportHTTP(w http.ResponseWriter, r *http.Request) {
	if _, err := s.export.Run(r.Context(), etl.TriggerHTTP); err != nil {
		s.log.Error("GA4 export failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		writeText(w, http.StatusInternalServerError, handlers.ExportErrBody(err))
		return
	}
	writeText(w, http.StatusOK, handlers.ExportOKBody)
}

// exportTimer answers the host with 200 even when the export fails, so the
// host does not treat the invocation as a handler crash.
func (s *Server) exportTimer(w http.ResponseWriter, r *http.Request) {
	var inv InvocationRequest
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil && err != io.EOF {
		s.log.Warn("Invalid timer invocation payload", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, InvocationResponse{
			Outputs: map[string]any{},
			Logs:    []string{"invalid invocation payload: " + err.Error()},
		})
		return
	}

	var timer timerInfo
	if raw, ok := inv.Data["timer"]; ok {
		_ = json.Unmarshal(raw, &timer)
	}
	if timer.IsPastDue {
		s.log.Warn("Timer is running late")
	}

	started := time.Now()
	logs := []string{"GA4 export triggered by timer"}
	if err := s.export.RunLogged(r.Context(), etl.TriggerSchedule, zap.Bool("past_due", timer.IsPastDue)); err != nil {
		logs = append(logs, "GA4 export failed: "+err.Error())
	} else {
		logs = append(logs, "GA4 export uploaded in "+time.Since(started).Round(time.Millisecond).String())
	}

	writeJSON(w, http.StatusOK, InvocationResponse{
		Outputs: map[string]any{},
		Logs:    logs,
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
