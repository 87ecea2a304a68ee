package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ga4export/internal/config"
	"ga4export/internal/etl"
	"ga4export/internal/logger"
)

func main() {
	_ = godotenv.Load()

	rootCmd := cobra.Command{
		Use:   "ga4-export",
		Short: "export GA4 campaign metrics and event counts to blob storage",
	}
	rootCmd.AddCommand(
		runCommand(),
		previewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*etl.GA4Export, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.ServiceEnvironment)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return etl.NewGA4Export(cfg, nil, log), log, nil
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run one export and upload ga4_data.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := exp.Run(context.Background(), etl.TriggerCLI)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d records (%d bytes) to %s/%s\n",
				res.Records, res.Bytes, res.Container, res.Blob)
			return nil
		},
	}
}

func previewCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "build the merged document without uploading it",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			doc, n, err := exp.Document(context.Background())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
				return err
			}
			if err := os.WriteFile(out, doc, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Info("Preview written", zap.String("path", out), zap.Int("records", n))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the document to this file instead of stdout")
	return cmd
}
