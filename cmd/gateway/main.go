package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudku/storage-gateway/common"
	"github.com/cloudku/storage-gateway/gateway"
	"github.com/cloudku/storage-gateway/httpserver"
	"github.com/cloudku/storage-gateway/provider"
	"github.com/cloudku/storage-gateway/recordstore"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "127.0.0.1:8090",
		Usage: "address to listen on for Prometheus metrics",
	},
	&cli.StringFlag{
		Name:  "db-path",
		Value: "gateway.db",
		Usage: "path to the SQLite record database",
	},
	&cli.StringFlag{
		Name:  "cloudsky-uri",
		Value: "cloudsky://api.cloudsky.biz.id/?prefix=cloudku",
		Usage: "CloudSky provider URI",
	},
	&cli.StringFlag{
		Name:  "catbox-uri",
		Value: "catbox://catbox.moe/user/api.php",
		Usage: "Catbox provider URI",
	},
	&cli.StringFlag{
		Name:  "public-url",
		Value: "",
		Usage: "external base URL for returned links (defaults to the request host)",
	},
	&cli.Int64Flag{
		Name:  "max-upload-mb",
		Value: 200,
		Usage: "upload size ceiling in megabytes",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: common.PackageName,
		Usage: "add 'service' tag to logs",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

func main() {
	app := &cli.App{
		Name:  "gateway",
		Usage: "Serve the replicated content-storage gateway API",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			metricsAddr := cCtx.String("metrics-addr")
			dbPath := cCtx.String("db-path")
			cloudskyURI := cCtx.String("cloudsky-uri")
			catboxURI := cCtx.String("catbox-uri")
			publicURL := cCtx.String("public-url")
			maxUploadMB := cCtx.Int64("max-upload-mb")
			logJSON := cCtx.Bool("log-json")
			logDebug := cCtx.Bool("log-debug")
			logUID := cCtx.Bool("log-uid")
			logService := cCtx.String("log-service")
			enablePprof := cCtx.Bool("pprof")
			drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

			// Setup logger
			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   logDebug,
				JSON:    logJSON,
				Service: logService,
				Version: common.Version,
			})

			if logUID {
				id := uuid.Must(uuid.NewRandom())
				logger = logger.With("uid", id.String())
			}

			// Open the record store
			logger.Info("Opening record store", "path", dbPath)
			store, err := recordstore.Open(dbPath, logger)
			if err != nil {
				logger.Error("Failed to open record store", "err", err)
				return err
			}
			defer store.Close()

			// Build both providers and the replication coordinator
			replicator, err := provider.NewFactory(logger).CreateReplicator(cloudskyURI, catboxURI)
			if err != nil {
				logger.Error("Failed to create providers", "err", err)
				return err
			}

			uploader := gateway.NewUploader(replicator, store, logger)
			fetcher := gateway.NewFetcher(store, logger)

			handler := httpserver.NewHandler(uploader, fetcher, &httpserver.HandlerConfig{
				MaxUploadSize: maxUploadMB * 1024 * 1024,
				PublicURL:     publicURL,
			}, logger)

			cfg := &httpserver.HTTPServerConfig{
				ListenAddr:               listenAddr,
				MetricsAddr:              metricsAddr,
				Log:                      logger,
				EnablePprof:              enablePprof,
				DrainDuration:            drainDuration,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}

			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
