// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moov-io/base/admin"
	"github.com/moov-io/screener"
	"github.com/moov-io/screener/pkg/config"
	"github.com/moov-io/screener/pkg/database"
	"github.com/moov-io/screener/pkg/pipeline"
	"github.com/moov-io/screener/pkg/screening"
	"github.com/moov-io/screener/pkg/stream"
	"github.com/moov-io/screener/x/route"
	"github.com/moov-io/screener/x/trace"

	"github.com/gorilla/mux"
)

var (
	httpAddr  = flag.String("http.addr", "", "HTTP listen address")
	adminAddr = flag.String("admin.addr", "", "Admin HTTP listen address")

	flagConfigFile = flag.String("config", "", "Filepath for config file to load")
	flagLogFormat  = flag.String("log.format", "", "Format for log lines (Options: json, plain")
)

func main() {
	flag.Parse()

	cfg, err := readConfig(or(os.Getenv("CONFIG_FILE"), *flagConfigFile))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	cfg.Logger.Log("startup", fmt.Sprintf("Starting screener server version %s", screener.Version))

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	// migrate database
	db, err := database.New(ctx, cfg.Logger, cfg.Database)
	if err != nil {
		panic(fmt.Sprintf("error creating database: %v", err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			cfg.Logger.Log("exit", err)
		}
	}()

	if cfg.Tracing.Enabled {
		closer, err := setupTracer(cfg)
		if err != nil {
			panic(fmt.Sprintf("problem creating tracer: %v", err))
		}
		defer closer.Close()
	}

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	// Spin up admin HTTP server and optionally override -admin.addr
	adminServer := admin.NewServer(or(*adminAddr, cfg.Admin.BindAddress))
	adminServer.AddVersionHandler(screener.Version)
	go func() {
		cfg.Logger.Log("admin", fmt.Sprintf("listening on %s", adminServer.BindAddr()))
		if err := adminServer.Listen(); err != nil {
			err = fmt.Errorf("problem starting admin http: %v", err)
			cfg.Logger.Log("admin", err)
			errs <- err
		}
	}()
	defer adminServer.Shutdown()

	// Setup screening
	requests, closeRequests, err := setupRequestLog(ctx, cfg, db)
	if err != nil {
		panic(fmt.Sprintf("problem setting up request log: %v", err))
	}
	defer closeRequests()

	source := screening.NewCachedSource(
		screening.NewCandidateSource(db, cfg.Screening.Table, cfg.Screening.NameColumn),
		cfg.Screening.CacheTTL,
	)
	service := screening.NewService(cfg.Logger, source, requests)

	handler := mux.NewRouter()
	route.PingRoute(cfg.Logger, handler)
	screening.NewRouter(cfg.Logger, service, cfg.Screening.DefaultThreshold).RegisterRoutes(handler)

	// Setup the upload pipeline
	shutdownPipeline, err := setupPipeline(ctx, cfg, adminServer)
	if err != nil {
		panic(fmt.Sprintf("problem setting up pipeline: %v", err))
	}
	defer shutdownPipeline()

	// Create main HTTP server
	serve := &http.Server{
		Addr:    or(*httpAddr, cfg.HTTP.BindAddress),
		Handler: handler,
		TLSConfig: &tls.Config{
			InsecureSkipVerify:       false,
			PreferServerCipherSuites: true,
			MinVersion:               tls.VersionTLS12,
		},
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	shutdownServer := func() {
		if err := serve.Shutdown(context.TODO()); err != nil {
			cfg.Logger.Log("shutdown", err)
		}
	}
	defer shutdownServer()

	// Start main HTTP server
	go func() {
		if certFile, keyFile := os.Getenv("HTTPS_CERT_FILE"), os.Getenv("HTTPS_KEY_FILE"); certFile != "" && keyFile != "" {
			cfg.Logger.Log("startup", fmt.Sprintf("binding to %s for secure HTTP server", serve.Addr))
			if err := serve.ListenAndServeTLS(certFile, keyFile); err != nil {
				cfg.Logger.Log("exit", err)
			}
		} else {
			cfg.Logger.Log("startup", fmt.Sprintf("binding to %s for HTTP server", serve.Addr))
			if err := serve.ListenAndServe(); err != nil {
				cfg.Logger.Log("exit", err)
			}
		}
	}()

	if err := <-errs; err != nil {
		cfg.Logger.Log("exit", err)
	}
}

func readConfig(path string) (*config.Config, error) {
	cfg, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}
	if *flagLogFormat != "" && !strings.EqualFold(cfg.Logging.Format, *flagLogFormat) {
		cfg.Logging.Format = *flagLogFormat
		cfg = config.SetupLogger(cfg)
	}
	return cfg, nil
}

func setupTracer(cfg *config.Config) (io.Closer, error) {
	// sample everything unless a rate is configured
	rate := cfg.Tracing.SampleRate
	if rate <= 0 {
		rate = 1.0
	}
	_, closer, err := trace.NewTracer(cfg.Logger, "screener", rate)
	return closer, err
}

func setupRequestLog(ctx context.Context, cfg *config.Config, db *sql.DB) (screening.RequestLogger, func(), error) {
	var loggers []screening.RequestLogger
	closeFn := func() {}

	if !cfg.Screening.RequestLog.Disabled {
		loggers = append(loggers, screening.NewRequestLog(db))
	}
	if cfg.Screening.RequestLog.Stream != nil {
		topic, err := stream.OpenTopic(ctx, cfg.Screening.RequestLog.Stream)
		if err != nil {
			return nil, closeFn, err
		}
		streamLogger := screening.NewStreamLogger(topic)
		loggers = append(loggers, streamLogger)
		closeFn = func() {
			if err := streamLogger.Close(context.Background()); err != nil {
				cfg.Logger.Log("shutdown", fmt.Sprintf("problem closing request stream: %v", err))
			}
		}
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	}
	return screening.MultiLogger(loggers...), closeFn, nil
}

func setupPipeline(ctx context.Context, cfg *config.Config, svc *admin.Server) (func(), error) {
	if len(cfg.Pipeline.Sources) == 0 {
		cfg.Logger.Log("pipeline", "no sources configured, skipping upload pipeline")
		return func() {}, nil
	}

	p, err := pipeline.FromConfig(cfg.Logger, cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	p.RegisterRoutes(svc)
	p.AddLivenessCheck(svc)

	daily, err := pipeline.Schedule(cfg.Pipeline)
	if err != nil {
		p.Close()
		return nil, err
	}
	pipeline.LogSchedule(cfg.Logger, cfg.Pipeline)

	ctx, cancelFunc := context.WithCancel(ctx)
	go p.Start(ctx, daily.C)

	return func() {
		cancelFunc()
		daily.Stop()
		if err := p.Close(); err != nil {
			cfg.Logger.Log("shutdown", fmt.Sprintf("problem closing pipeline: %v", err))
		}
	}, nil
}

// or returns the first non-empty string
func or(options ...string) string {
	for i := range options {
		if v := strings.TrimSpace(options[i]); v != "" {
			return v
		}
	}
	return ""
}
