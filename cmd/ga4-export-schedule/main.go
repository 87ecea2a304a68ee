package main

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"ga4export/internal/config"
	"ga4export/internal/etl"
	"ga4export/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.ServiceEnvironment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = zl.Sync() }()

	exp := etl.NewGA4Export(cfg, nil, zl)

	// cold start counts as a scheduled tick
	if cfg.RunOnStartup {
		_ = exp.RunLogged(context.Background(), etl.TriggerStartup)
	}

	lambda.Start(exp.HandleSchedule)
}
