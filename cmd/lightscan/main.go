package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"libdb.so/lightscan"
	"libdb.so/lightscan/internal/gpioboard"
	"libdb.so/lightscan/internal/serialboard"
	"libdb.so/lightscan/media"
)

var (
	_ lightscan.Board = (*serialboard.Board)(nil)
	_ lightscan.Board = (*gpioboard.Board)(nil)
)

var (
	config  = "lightscan.toml"
	verbose = false
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	board, closeBoard, err := openBoard(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open board: %w", err)
	}
	defer func() {
		if err := closeBoard(); err != nil {
			slog.Warn("failed to close board", "error", err)
		}
	}()

	player := media.CommandPlayer{Command: cfg.Player.Command}

	d, err := lightscan.NewDaemon(cfg, board, player, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}

	return nil
}

func openBoard(ctx context.Context, cfg *lightscan.Config) (lightscan.Board, func() error, error) {
	switch cfg.Board.Kind {
	case lightscan.SerialBoard:
		b, err := serialboard.Open(ctx, serialboard.Config{
			Device:  cfg.Board.Device,
			Baud:    cfg.Board.Baud,
			Timeout: time.Duration(cfg.Board.Timeout),
		}, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil

	case lightscan.GPIOBoard:
		b, err := gpioboard.Open(gpioboard.Config{
			Channels:  cfg.Board.GPIO.Channels,
			Button:    cfg.Board.GPIO.Button,
			Indicator: cfg.Board.GPIO.Indicator,
			Frequency: cfg.Board.GPIO.Frequency,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown board kind %q", cfg.Board.Kind)
	}
}

func readConfig() (*lightscan.Config, error) {
	f, err := os.Open(config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !pflag.CommandLine.Changed("config") {
			slog.Info("no configuration file, using defaults", "path", config)
			return lightscan.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return lightscan.ParseConfig(f)
}
