package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nhle/prodtask/internal/ai"
	"github.com/nhle/prodtask/internal/app"
	"github.com/nhle/prodtask/internal/credential"
	"github.com/nhle/prodtask/internal/logger"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/notify"
	"github.com/nhle/prodtask/internal/state"
	"github.com/nhle/prodtask/internal/store"
)

func main() {
	configPathFlag := flag.String("config", model.DefaultConfigPath(), "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	setAIKeyFlag := flag.Bool("set-ai-key", false, "read an AI API key from stdin and store it in the keyring")
	flag.Parse()

	if *setAIKeyFlag {
		if err := storeAIKey(); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := run(*configPathFlag, *dbPathFlag); err != nil {
		log.Fatal(err)
	}
}

func run(cfgPath, dbPath string) (err error) {
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, logger.Sync())
	}()
	log := logger.Logger()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	kv, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, kv.Close())
	}()

	mgr, err := state.Open(context.Background(), kv,
		state.WithDefaultPassword(cfg.Auth.DefaultPassword),
		state.WithLogger(logger.WithModule("state")),
	)
	if err != nil {
		return err
	}

	apiKey, err := credential.LoadAIKey()
	if err != nil {
		log.Warn("AI key unavailable", zap.Error(err))
	}
	refiner := ai.New(apiKey, cfg.AI.Model, cfg.AI.MaxTokens,
		ai.WithEndpoint(cfg.AI.Endpoint),
		ai.WithLogger(logger.WithModule("ai")),
	)

	sink := notify.NewCommandSink(notify.ParsePermission(cfg.Alerts.Permission))
	alerter := notify.NewAlerter(sink, cfg.AlertWindow(), logger.WithModule("notify"))

	log.Info("starting",
		zap.String("db", cfg.Storage.Path),
		zap.Bool("ai_enabled", refiner.Enabled()),
		zap.Stringer("alert_permission", sink.Permission()),
	)

	root := app.New(mgr, refiner, alerter, cfg.ToastDuration(), logger.WithModule("app"))
	if _, err := tea.NewProgram(root, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	// Remember an answer given during this run so the next start does not ask again.
	if p := sink.Permission(); p != notify.ParsePermission(cfg.Alerts.Permission) {
		cfg.Alerts.Permission = p.String()
		if err := model.SaveConfig(cfgPath, cfg); err != nil {
			log.Warn("saving alert permission", zap.Error(err))
		}
	}
	return nil
}

// storeAIKey reads a single line from stdin into the keyring.
func storeAIKey() error {
	fmt.Fprint(os.Stderr, "AI API key: ")
	var key string
	if _, err := fmt.Fscanln(os.Stdin, &key); err != nil {
		return fmt.Errorf("reading key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty key")
	}
	return credential.Set(credential.AIKey, key)
}
