package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/config"
)

func main() {
	configPath := flag.String("config", "", "tuning file (YAML); built-in defaults when empty")
	fighters := flag.Int("fighters", 0, "fighter count (overrides tuning)")
	length := flag.Duration("length", 30*time.Second, "bout length")
	script := flag.String("script", "", "bot script path (embedded brawler when empty)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer func() { _ = logger.Sync() }()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
		cfg = loaded
	}
	if *fighters > 0 {
		cfg.Bout.Fighters = *fighters
	}
	if *script != "" {
		cfg.Bout.Script = *script
	}
	store := config.NewStore(cfg)

	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath)
		if err != nil {
			logger.Warn("config watch unavailable", zap.Error(err))
		} else {
			defer func() { _ = watcher.Close() }()
			go reloadLoop(watcher, *configPath, store, logger)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bout, err := NewBout(store, clock.New(), logger)
	if err != nil {
		logger.Fatal("set up bout", zap.Error(err))
	}
	bout.Run(ctx, *length)
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}

// reloadLoop hot-swaps the tuning whenever the config file changes.
// In-flight swings keep the values they captured at start.
func reloadLoop(w *config.Watcher, path string, store *config.Store, logger *zap.Logger) {
	for {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return
			}
			cfg, err := config.Load(path)
			if err != nil {
				logger.Warn("config reload rejected", zap.Error(err))
				continue
			}
			if err := store.Replace(cfg); err != nil {
				logger.Warn("config reload rejected", zap.Error(err))
				continue
			}
			logger.Info("tuning reloaded", zap.String("path", path))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher", zap.Error(err))
		}
	}
}
