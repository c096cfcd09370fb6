package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/config"
	"github.com/utkarsh5026/tilegen/observability"
	"github.com/utkarsh5026/tilegen/protocol"
	"github.com/utkarsh5026/tilegen/worker"
)

// runWorker serves the worker protocol on stdio. stdout carries frames, so
// logs always go to stderr.
func runWorker(ctx context.Context, configPath string, args []string) error {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Log.Outputs = []string{"stderr"}
	cfg.Log.Rotation.Enable = false

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	codec, err := protocol.LookupCodec(cfg.Pool.Codec)
	if err != nil {
		return err
	}

	logger = logger.Named("worker").With(
		zap.Int("pid", os.Getpid()),
		zap.String("index", os.Getenv("TILEGEN_WORKER_INDEX")))

	rt := worker.NewRuntime(worker.BiomeLoader(), worker.WithCodec(codec), worker.WithLogger(logger))
	return worker.ServeStdio(ctx, rt)
}
