package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitegen/internal/pipeline"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitegen.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory, overriding the configured one"`
		Delete bool   `short:"d" help:"Delete the output directory before building"`
	} `cmd:"" help:"Build the site from the configured content path"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`
}

func main() {
	// A .env alongside the working directory may carry SITEGEN_* style
	// overrides; missing files are fine.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "build":
		if err := runBuild(logger); err != nil {
			logger.Error("build failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := runInit(); err != nil {
			logger.Error("init failed", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

func runBuild(logger *slog.Logger) error {
	userMap, err := settings.Load(CLI.Config)
	if err != nil {
		return err
	}
	settings.ApplyEnvOverrides(userMap, os.Environ())
	if CLI.Build.Output != "" {
		userMap["OUTPUT_PATH"] = CLI.Build.Output
	}
	if CLI.Build.Delete {
		userMap["DELETE_OUTPUT_DIRECTORY"] = true
	}

	s, warnings, err := settings.Normalize(userMap, filepath.Dir(CLI.Config))
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	report, err := pipeline.New(s, logger).Run(context.Background())
	if err != nil {
		return err
	}
	logger.Info("site written",
		slog.String("output", s.OutputPath),
		slog.Int("articles", report.Articles),
		slog.Int("pages", report.Pages),
		slog.Int("static_files", report.StaticFiles),
		slog.Int("warnings", len(report.Warnings)))
	if report.FailedPaths > 0 {
		logger.Warn("some source files failed", slog.Int("failed", report.FailedPaths))
	}
	return nil
}

const starterConfig = `SITENAME: A sitegen site
SITEURL: ""
PATH: content
OUTPUT_PATH: output
TIMEZONE: UTC
DEFAULT_LANG: en
`

func runInit() error {
	if _, err := os.Stat(CLI.Config); err == nil && !CLI.Init.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", CLI.Config)
	}
	if err := os.WriteFile(CLI.Config, []byte(starterConfig), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", CLI.Config)
	return nil
}
