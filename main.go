package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gridsmith/energyplanner/config"
	"github.com/gridsmith/energyplanner/entity"
	"github.com/gridsmith/energyplanner/history"
	"github.com/gridsmith/energyplanner/mirror"
	"github.com/gridsmith/energyplanner/nordpool"
	"github.com/gridsmith/energyplanner/planner"
	"github.com/gridsmith/energyplanner/store"
)

func main() {

	configPath := flag.String("config", "energyplanner.json", "path to the configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	slog.Info("Starting planner...")

	cfg, err := config.Read(*configPath)
	if err != nil {
		slog.Error("Failed to read config", "error", err)
		return
	}

	documents, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("Failed to open document store", "error", err)
		return
	}

	var historyStore planner.HistoryStore
	if cfg.History.Path != "" {
		h, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Error("Failed to open history store", "error", err)
			return
		}
		historyStore = h
	}

	ctx, cancel := context.WithCancel(context.Background())

	prices := nordpool.New(&http.Client{Timeout: 30 * time.Second})
	registry := entity.NewRegistry()

	p := planner.New(cfg.Planner, prices, documents, registry, historyStore, logger)
	if err := p.LoadState(); err != nil {
		slog.Error("Failed to load planner state", "error", err)
		return
	}
	if err := entity.BindPlanner(registry, p); err != nil {
		slog.Error("Failed to bind entities", "error", err)
		return
	}
	go p.Run(ctx)

	// the mirror is optional; without a configured url the published plans
	// are drained and discarded
	if cfg.Mirror.Supabase.Url != "" {
		m, err := mirror.New(
			cfg.Mirror.Supabase.Url,
			os.Getenv("SUPABASE_ANON_KEY"),
			cfg.Mirror.Supabase.Schema,
			cfg.Mirror.Supabase.Table,
			cfg.Mirror.InstallationID,
		)
		if err != nil {
			slog.Error("Failed to create mirror", "error", err)
			return
		}
		go m.Run(ctx, p.Published)
	} else {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.Published:
				}
			}
		}()
	}

	p.RequestRun()

	// wait for a ctrl-c interrupt before exiting
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan

	// cancel any open go-routines and give them up to 100ms to gracefully shutdown
	cancel()
	time.Sleep(time.Millisecond * 100)

	slog.Info("Exiting")
	os.Exit(0)
}
