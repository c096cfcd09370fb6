package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/tilegen/tile"
)

// renderResult is the outcome of one rendered tile.
type renderResult struct {
	Coord   tile.Coord
	Domain  tile.Domain
	State   tile.State
	Elapsed time.Duration
	Path    string
	Cause   error
}

func runRender(ctx context.Context, configPath string, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	x0 := fs.Int("x0", -1, "First tile column")
	y0 := fs.Int("y0", -1, "First tile row")
	x1 := fs.Int("x1", 1, "Last tile column (inclusive)")
	y1 := fs.Int("y1", 1, "Last tile row (inclusive)")
	z := fs.Int("z", 4, "Zoom level written into tile names")
	out := fs.String("out", "tiles", "Output directory")
	quiet := fs.Bool("quiet", false, "Skip the progress bar and summary table")
	_ = fs.Parse(args)

	if *x1 < *x0 || *y1 < *y0 {
		return errors.New("empty tile range: x1 must be >= x0 and y1 >= y0")
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	coords := tileRange(*x0, *y0, *x1, *y1, *z)
	a.logger.Info("rendering tiles",
		zap.Int("tiles", len(coords)),
		zap.Int("workers", a.pool.Size()),
		zap.String("out", *out))

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !*quiet {
		bar = makeProgressBar(len(coords))
	}

	start := time.Now()
	results, err := renderTiles(ctx, a, coords, *out, bar)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if !*quiet {
		printResults(results, time.Since(start))
	}
	return nil
}

func tileRange(x0, y0, x1, y1, z int) []tile.Coord {
	coords := make([]tile.Coord, 0, (x1-x0+1)*(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			coords = append(coords, tile.Coord{X: x, Y: y, Z: z})
		}
	}
	return coords
}

// renderTiles paints every tile and writes it as {z}_{x}_{y}.png under dir.
// Tiles are requested concurrently; the pool bounds the actual parallelism.
func renderTiles(ctx context.Context, a *app, coords []tile.Coord, dir string, bar *progressbar.ProgressBar) ([]renderResult, error) {
	var (
		mu      sync.Mutex
		results = make([]renderResult, 0, len(coords))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(2*a.pool.Size(), 1))

	for _, c := range coords {
		g.Go(func() error {
			began := time.Now()
			t := a.producer.Render(ctx, c)

			path := filepath.Join(dir, fmt.Sprintf("%d_%d_%d.png", c.Z, c.X, c.Y))
			if err := writeTile(t, path); err != nil {
				return err
			}

			mu.Lock()
			results = append(results, renderResult{
				Coord:   c,
				Domain:  tile.TileToDomain(c.X, c.Y, a.cfg.Tile.CellsPerTile),
				State:   t.State(),
				Elapsed: time.Since(began),
				Path:    path,
				Cause:   t.Cause(),
			})
			mu.Unlock()

			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Coord.Y != results[j].Coord.Y {
			return results[i].Coord.Y < results[j].Coord.Y
		}
		return results[i].Coord.X < results[j].Coord.X
	})
	return results, nil
}

func writeTile(t *tile.Tile, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.EncodePNG(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func makeProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Rendering tiles"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func printResults(results []renderResult, total time.Duration) {
	fmt.Println()
	_, _ = bold.Println("Rendered tiles")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Tile", "Domain (x, z)", "State", "Time", "File")

	failed := 0
	for _, r := range results {
		state := r.State.String()
		if r.State != tile.StatePaintedSuccess {
			failed++
			if r.Cause != nil {
				state = fmt.Sprintf("%s: %v", state, r.Cause)
			}
		}
		_ = table.Append(
			r.Coord.String(),
			fmt.Sprintf("(%d, %d)", r.Domain.X, r.Domain.Z),
			state,
			r.Elapsed.Round(time.Millisecond).String(),
			r.Path,
		)
	}

	if err := table.Render(); err != nil {
		_, _ = red.Println("Error rendering results table")
	}

	fmt.Println()
	if failed > 0 {
		_, _ = red.Printf("%d/%d tiles painted as fallback\n", failed, len(results))
	}
	_, _ = green.Printf("Rendered %d tiles in %v\n", len(results)-failed, total.Round(time.Millisecond))
}
