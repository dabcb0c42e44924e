// Command hardhat-api serves the hard hat detection HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/annotate"
	"github.com/nvr-ai/hardhat/config"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/inference/detectors"
	"github.com/nvr-ai/hardhat/logger"
	"github.com/nvr-ai/hardhat/profiler"
	"github.com/nvr-ai/hardhat/server"
	"github.com/nvr-ai/hardhat/service"
)

func main() {
	parser := argparse.NewParser("hardhat-api", "Hard hat detection HTTP API")
	configPath := parser.String("c", "config", &argparse.Options{Help: "Path to config.yml (default: ./config.yml if present)"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("hardhat-api exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prof := profiler.New(cfg.Profiler, log)
	prof.Start(ctx)
	defer prof.Stop()

	// The API still starts without a model and answers /predict with 503.
	var detector inference.Detector
	if d, err := detectors.New(cfg.Inference); err != nil {
		log.Error("error loading model", zap.String("path", cfg.Inference.ModelPath), zap.Error(err))
	} else {
		detector = d
		log.Info("model loaded",
			zap.String("path", cfg.Inference.ModelPath),
			zap.String("engine", string(cfg.Inference.Engine)),
			zap.String("provider", string(cfg.Inference.Provider.Backend)),
		)
	}

	opts := service.Options{
		Renderer:    annotate.NewRenderer(),
		Profiler:    prof,
		Logger:      log,
		JPEGQuality: cfg.Server.JPEGQuality,
		MaxPixels:   cfg.Server.MaxImagePixels,
	}

	if cfg.Redis.Enabled {
		client, err := service.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("prediction cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			opts.Cache = service.NewRedisCache(client, cfg.Redis.TTL, cfg.Redis.KeyPrefix)
			log.Info("prediction cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if cfg.MQTT.Enabled {
		client, err := service.NewMQTTClient(cfg.MQTT, log)
		if err != nil {
			log.Warn("compliance alerts disabled", zap.Error(err))
		} else {
			opts.Alerts = service.NewMQTTPublisher(client, cfg.MQTT.Topic, cfg.MQTT.QoS)
			log.Info("compliance alerts enabled", zap.String("topic", cfg.MQTT.Topic))
		}
	}

	predictor := service.NewPredictor(detector, opts)
	defer func() {
		if err := predictor.Close(); err != nil {
			log.Warn("failed to release predictor", zap.Error(err))
		}
	}()

	return server.New(cfg.Server, predictor, log).Run(ctx)
}
