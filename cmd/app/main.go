package main

import (
	"context"
	"flag"

	"reelrate/proj/internal/api/tasks"
	"reelrate/proj/internal/clients/backend"
	"reelrate/proj/internal/config"
	"reelrate/proj/internal/lib/logger"
	"reelrate/proj/internal/services"
	"reelrate/proj/internal/session"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")
	flag.Parse()
	godotenv.Load()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)

	sess, err := session.New(cfg.Session.TokenPath)
	if err != nil {
		panic(err)
	}
	rps := cfg.Limiter.Rps
	if !cfg.Limiter.Enabled {
		rps = 0
	}
	api := backend.New(
		log,
		cfg.Backend.BaseURL,
		cfg.Backend.Timeout,
		cfg.Backend.RetriesCount,
		rps,
		cfg.Limiter.Burst,
	)
	pool := tasks.New(log, cfg.Tasks.MaxWorkers, cfg.Tasks.MaxQueueSize)
	pool.Run()

	app := NewApplication(cfg, log, api, services.New(log, api, sess), sess, pool)
	app.run()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Tasks.ShutdownTimeout)
	defer cancel()
	pool.Shutdown(ctx)
}
