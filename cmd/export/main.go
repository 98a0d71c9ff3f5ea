// Command export uploads the current appointment listing to EXPORT_BUCKET.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/carservice-desk/cmd/mainconfig"
	"github.com/wolfman30/carservice-desk/internal/app/bootstrap"
	"github.com/wolfman30/carservice-desk/internal/appointments"
	appconfig "github.com/wolfman30/carservice-desk/internal/config"
	"github.com/wolfman30/carservice-desk/internal/export"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	pool, err := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if pool == nil {
		logger.Warn("no DATABASE_URL; exporting an empty in-memory listing")
	} else {
		defer pool.Close()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}

	service := appointments.NewService(bootstrap.BuildAppointmentStore(pool, logger), logger, nil)
	exporter := export.NewExporter(mainconfig.NewS3Client(awsCfg, cfg), cfg.ExportBucket, cfg.ExportPrefix, service, logger)

	res, err := exporter.Export(ctx)
	if err != nil {
		return err
	}
	logger.Info("export complete", "key", res.Key, "latest", res.LatestKey, "count", res.Count)
	return nil
}
