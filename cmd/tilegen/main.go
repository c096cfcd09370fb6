// Command tilegen renders biome map tiles with a pool of generation workers.
//
// Usage:
//
//	tilegen [-config file] render [-x0 n -y0 n -x1 n -y1 n -z n -out dir]
//	tilegen [-config file] serve [-addr host:port]
//	tilegen [-config file] worker
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

var (
	bold  = color.New(color.Bold)
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, configPath string, args []string) error
}

var commands = []command{
	{"render", "render a rectangle of tiles to PNG files", runRender},
	{"serve", "serve tiles over HTTP", runServe},
	{"worker", "run a generation worker on stdin/stdout", runWorker},
}

func main() {
	fs := flag.NewFlagSet("tilegen", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML config file (default: ./tilegen.yaml, ./configs, ~/.tilegen)")
	fs.Usage = func() { usage(fs) }
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		usage(fs)
		os.Exit(2)
	}

	name, args := fs.Arg(0), fs.Args()[1:]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err := cmd.run(ctx, *configPath, args)
		stop()
		if err != nil {
			_, _ = red.Fprintf(os.Stderr, "tilegen %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}

	_, _ = red.Fprintf(os.Stderr, "Error: unknown command '%s'\n", name)
	usage(fs)
	os.Exit(2)
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	_, _ = bold.Fprintln(out, "Usage: tilegen [-config file] <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-8s %s\n", cmd.name, cmd.usage)
	}
	fmt.Fprintln(out)
	fs.PrintDefaults()
}
