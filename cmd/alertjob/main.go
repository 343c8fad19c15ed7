// backend-go/cmd/alertjob/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/modacentro/retail-dashboard/backend-go/internal/cache"
	"github.com/modacentro/retail-dashboard/backend-go/internal/config"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/engine"
	"github.com/modacentro/retail-dashboard/backend-go/internal/repository/postgres"
	"github.com/modacentro/retail-dashboard/backend-go/internal/semaphore"
	"github.com/modacentro/retail-dashboard/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "from",
			Usage: "Period start (YYYY-MM-DD); defaults to 30 days ago",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Period end (YYYY-MM-DD, inclusive); defaults to today",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "Number of top-selling products to scan",
			Value: 0,
		},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "alertjob",
		Usage: "Run the redistribution alert batch over the top-selling products",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run one batch and optionally export the report",
				Flags:  append([]cli.Flag{newDBURLFlag()}, windowFlags()...),
				Action: runOnce,
			},
			{
				Name:  "serve",
				Usage: "Expose the batch behind a small HTTP trigger endpoint",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "port",
						Usage:   "Port for the trigger/health server",
						Value:   "8090",
						EnvVars: []string{"ALERTJOB_PORT"},
					},
				}, windowFlags()...),
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runOnce(c *cli.Context) error {
	eng, db, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer db.Close()

	window, err := resolveWindow(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Minute)
	defer cancel()

	result, err := eng.FullBatch(ctx, window, c.Int("top"))
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	logger.Log.Info().
		Int("alerts", result.Total).
		Int("failures", len(result.Failures)).
		Time("from", window.From).
		Time("to", window.To).
		Msg("Batch complete")

	for _, f := range result.Failures {
		logger.Log.Warn().Str("base_code", f.BaseCode).Str("error", f.Error).Msg("Product skipped")
	}

	return exportReport(ctx, config.Load().Export, window, result)
}

func serve(c *cli.Context) error {
	eng, db, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer db.Close()

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/run", func(w http.ResponseWriter, req *http.Request) {
		window, err := resolveWindow(c)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(req.Context(), 10*time.Minute)
		defer cancel()

		result, err := eng.FullBatch(ctx, window, c.Int("top"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := exportReport(ctx, config.Load().Export, window, result); err != nil {
			logger.Log.Warn().Err(err).Msg("Report export failed")
		}

		writeJSON(w, result)
	}).Methods("POST")

	r.HandleFunc("/reports", func(w http.ResponseWriter, req *http.Request) {
		reports, err := listReports(req.Context(), config.Load().Export)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, reports)
	}).Methods("GET")

	addr := ":" + c.String("port")
	logger.Log.Info().Str("addr", addr).Msg("Alert job server starting")
	return http.ListenAndServe(addr, r)
}

func buildEngine(c *cli.Context) (*engine.Engine, *postgres.DB, error) {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	db, err := postgres.NewDBFromURL(c.String("db-url"), cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, err
	}

	sources := postgres.NewFactSources(db)

	// The job process is short-lived; an in-process mapping cache and no
	// batch-result cache keep every run fresh.
	mapping := cache.NewMemoryStoreMappingCache(cfg.Cache.StoreMappingTTL)

	eng := engine.New(engine.Sources{
		Products:  sources,
		Stock:     sources,
		Sales:     sources,
		Purchases: sources,
		Stores:    sources,
	}, mapping, cache.NewNoopAlertBatchCache(), cfg.Engine, cfg.Alerts, semaphore.Overrides{
		Supplier: make(map[string]semaphore.Override),
		Category: make(map[string]semaphore.Override),
	})

	return eng, db, nil
}

func resolveWindow(c *cli.Context) (domain.DateRange, error) {
	now := time.Now().UTC()
	window := domain.DateRange{
		From: now.AddDate(0, 0, -30).Truncate(24 * time.Hour),
		To:   now,
	}

	if v := c.String("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid --from value %q: %w", v, err)
		}
		window.From = t
	}
	if v := c.String("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid --to value %q: %w", v, err)
		}
		window.To = t.Add(24*time.Hour - time.Second)
	}

	if window.To.Before(window.From) {
		return domain.DateRange{}, fmt.Errorf("period end %s precedes start %s",
			window.To.Format("2006-01-02"), window.From.Format("2006-01-02"))
	}

	return window, nil
}
