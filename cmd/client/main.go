package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"nextcloud-notes/internal/config"
	"nextcloud-notes/internal/logger"
	"nextcloud-notes/internal/metrics"
	"nextcloud-notes/pkg/notesapi"
)

var _ notesapi.Observer = (*metrics.Client)(nil)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [-config config.yml] [-stats] <command> [args]

Commands:
  version                     highest Notes API version supported by the server
  list [-watch 30s] [-count n] list all notes (poll with -watch)
  get <id>                    print one note
  create -title t [-content c] [-category c] [-favorite]
  update <id> [-title t] [-content c] [-category c] [-favorite=bool]
  delete <id>                 delete a note
`, os.Args[0])
}

func main() {
	configFile := flag.String("config", "config.yml", "path to config file")
	stats := flag.Bool("stats", false, "log request and cache counters on exit")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// .env не обязателен, переменные из него подставляются в ${VAR} конфига
	_ = godotenv.Load()

	appConfig, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Error initializing config: %v", err)
	}
	if err := config.Validate(appConfig.Client); err != nil {
		log.Fatalf("Error validating config: %v", err)
	}

	appLogger := logger.New(appConfig.Logger, os.Stderr)
	cfg := appConfig.Client

	registry := prometheus.NewRegistry()

	client, err := notesapi.NewClient(cfg.Username, cfg.Password, cfg.Hostname,
		notesapi.WithScheme(cfg.Scheme),
		notesapi.WithETagCaching(cfg.ETagCaching),
		notesapi.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}),
		notesapi.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		notesapi.WithLogger(appLogger),
		notesapi.WithObserver(metrics.NewClient(registry)),
	)
	if err != nil {
		appLogger.Fatalf("Error creating client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, client, flag.Args(), os.Stdout)
	if *stats {
		logStats(appLogger, registry)
	}
	if err != nil {
		appLogger.WithField("client", client.String()).Errorf("%s failed: %v", flag.Arg(0), err)
		os.Exit(1)
	}
}

// logStats пишет в лог суммарные счетчики запросов и кэша клиента
func logStats(log logrus.FieldLogger, g prometheus.Gatherer) {
	totals, err := metrics.Totals(g)
	if err != nil {
		log.WithError(err).Warn("failed to collect client stats")
		return
	}

	fields := logrus.Fields{}
	for name, value := range totals {
		fields[name] = value
	}
	log.WithFields(fields).Info("notes client stats")
}
