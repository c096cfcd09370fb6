package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/config"
	"github.com/utkarsh5026/tilegen/observability"
	"github.com/utkarsh5026/tilegen/pool"
	"github.com/utkarsh5026/tilegen/protocol"
	"github.com/utkarsh5026/tilegen/tile"
	"github.com/utkarsh5026/tilegen/worker"
)

// app holds the components shared by render and serve.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	pool     *pool.WorkerPool
	producer *tile.Producer
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	codec, err := protocol.LookupCodec(cfg.Pool.Codec)
	if err != nil {
		return nil, err
	}

	factory, err := workerFactory(cfg, configPath, codec, logger)
	if err != nil {
		return nil, err
	}

	opts := []pool.WorkerPoolOption{
		pool.WithWorkerCount(cfg.Pool.Workers),
		pool.WithReadinessTimeout(cfg.Pool.ReadinessTimeout),
		pool.WithRateLimit(cfg.Pool.RateLimit, cfg.Pool.RateBurst),
		pool.WithCodec(codec),
		pool.WithLogger(logger.Named("pool")),
	}
	if cfg.Pool.StrictReadiness {
		opts = append(opts, pool.WithStrictReadiness())
	}
	wp := pool.New(factory, opts...)

	producer, err := tile.NewProducer(wp,
		tile.WithSeed(cfg.Tile.Seed),
		tile.WithY(cfg.Tile.Y),
		tile.WithZoomLevel(cfg.Tile.ZoomLevel),
		tile.WithCellsPerTile(cfg.Tile.CellsPerTile),
		tile.WithPixelsPerCell(cfg.Tile.PixelsPerCell),
		tile.WithTileSize(cfg.Tile.Size),
		tile.WithGrid(cfg.Tile.Grid),
		tile.WithLabels(cfg.Tile.Labels),
		tile.WithLogger(logger.Named("tile")),
	)
	if err != nil {
		wp.Destroy()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, pool: wp, producer: producer}, nil
}

func (a *app) Close() {
	a.pool.Destroy()
	_ = a.producer.Close()
	_ = a.logger.Sync()
}

// workerFactory builds in-process workers or tilegen worker subprocesses,
// depending on the configured transport.
func workerFactory(cfg *config.Config, configPath string, codec protocol.Codec, logger *zap.Logger) (worker.Factory, error) {
	opts := []worker.Option{
		worker.WithCodec(codec),
		worker.WithLogger(logger.Named("worker")),
	}

	switch cfg.Pool.Transport {
	case config.TransportLocal:
		opts = append(opts,
			worker.WithCPUAffinity(cfg.Pool.CPUAffinity),
			worker.WithBuffer(cfg.Pool.WorkerBuffer))
		return worker.LocalFactory(worker.BiomeLoader(), opts...), nil

	case config.TransportProcess:
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate tilegen executable: %w", err)
		}
		build := func(index int) *exec.Cmd {
			args := []string{"worker"}
			if configPath != "" {
				args = append([]string{"-config", configPath}, args...)
			}
			cmd := exec.Command(self, args...)
			cmd.Env = append(os.Environ(),
				"TILEGEN_POOL_CODEC="+codec.Name(),
				"TILEGEN_LOG_OUTPUTS=stderr",
				"TILEGEN_WORKER_INDEX="+strconv.Itoa(index),
			)
			return cmd
		}
		return worker.ProcessFactory(build, opts...), nil

	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Pool.Transport)
	}
}
