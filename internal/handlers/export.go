package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"ga4export/internal/etl"
)

// ExportOKBody is the response body of a successful HTTP-triggered export.
const ExportOKBody = "Datos subidos a Blob Storage."

// ExportErrBody formats a failed export for the HTTP caller.
func ExportErrBody(err error) string {
	return "Error: " + err.Error()
}

type ExportRunner interface {
	Run(ctx context.Context, trigger string) (*etl.Result, error)
}

type ExportHandler struct {
	runner ExportRunner
	log    *zap.Logger
}

func NewExportHandler(runner ExportRunner, log *zap.Logger) *ExportHandler {
	return &ExportHandler{runner: runner, log: log}
}

// Handle runs one export for any method and path.
func (h *ExportHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log := h.log.With(
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("request_id", req.RequestContext.RequestID))

	if _, err := h.runner.Run(ctx, etl.TriggerHTTP); err != nil {
		log.Error("GA4 export failed", zap.Error(err))
		return textResp(http.StatusInternalServerError, ExportErrBody(err)), nil
	}
	return textResp(http.StatusOK, ExportOKBody), nil
}
