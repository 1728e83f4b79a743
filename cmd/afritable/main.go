// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Command afritable runs pipeline operations once from the command line.
//
//	afritable [flags] <command>
//
// Commands:
//
//	collect          metro-area collection (quick sweep, or --full)
//	enhance          enhance one restaurant (--restaurant-id) or a batch
//	assess           quality metrics for --restaurant-id
//	report           fleet-wide quality report
//	stale            list restaurants past the stale window
//	flag             flag cross-source discrepancies
//	purge-test-data  clear placeholder phones and example websites
//
// The summary is logged and written to stdout as JSON. The exit status is 1
// when the command fails.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/tomtom215/afritable/internal/app"
	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/enhancement"
	"github.com/tomtom215/afritable/internal/logging"
)

var errUsage = errors.New("usage")

// options are the parsed command line.
type options struct {
	command      string
	configPath   string
	restaurantID string
	batchSize    int
	skipExisting bool
	full         bool
	steps        enhancement.Options
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("afritable", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: afritable [flags] <%s>\n\nFlags:\n", commandList())
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.restaurantID, "restaurant-id", "", "restaurant to enhance or assess")
	fs.IntVar(&opts.batchSize, "batch-size", 0, "restaurants enhanced concurrently per chunk (default from config)")
	fs.BoolVar(&opts.skipExisting, "skip-existing", false, "skip restaurants updated within the last 7 days")
	fs.BoolVar(&opts.steps.ForceUpdate, "force-update", false, "overwrite existing values with verified ones")
	fs.BoolVar(&opts.steps.Photos, "photos", true, "collect and rank photos")
	fs.BoolVar(&opts.steps.Scraping, "scraping", true, "scrape restaurant websites")
	fs.BoolVar(&opts.steps.Validation, "validation", true, "validate phone and address")
	fs.BoolVar(&opts.full, "full", false, "collect every region with every search term")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errUsage
		}
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errUsage
	}
	opts.command = fs.Arg(0)
	if _, ok := commands[opts.command]; !ok {
		fs.Usage()
		return nil, fmt.Errorf("unknown command %q", opts.command)
	}
	if opts.batchSize < 0 || opts.batchSize > 50 {
		return nil, fmt.Errorf("--batch-size must be between 0 and 50, got %d", opts.batchSize)
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}

	cfg, err := config.LoadWithKoanf(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})

	a, err := app.New(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize pipeline")
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	return execute(ctx, pipelineFor(a), opts, stdout)
}

// execute runs one command and prints its summary.
func execute(ctx context.Context, p pipeline, opts *options, stdout io.Writer) int {
	log := logging.Ctx(ctx).With().Str("command", opts.command).Logger()

	result, err := commands[opts.command](ctx, p, opts)
	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		return 1
	}

	out, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode summary")
		return 1
	}
	log.Info().RawJSON("summary", out).Msg("Command complete")

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(out)
	}
	fmt.Fprintln(stdout, pretty.String())
	return 0
}
