package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/systemstart/catalog-update/pkg/api"
	"github.com/systemstart/catalog-update/pkg/logging"
	"github.com/systemstart/catalog-update/pkg/processing"
	"github.com/systemstart/catalog-update/pkg/registry"
	"github.com/systemstart/catalog-update/pkg/report"
)

var version = "dev"

const (
	_ = iota
	exitLoggingSetupFailed
	exitDotenvError
	exitLoadConfigurationFileFailed
	exitInvalidConfiguration
	exitCatalogPathNotSpecified
	exitCatalogPathCheckFailed
	exitRegistryToolFailed
	exitTrainNotFound
	exitProcessingFailed
	exitReportFailed
)

var (
	catalogPath      string
	train            string
	layout           string
	registryTool     string
	registryRetries  uint
	staticTags       string
	validatorCommand string
	include          string
	exclude          string
	configFile       string
	output           string
	loggingType      string
	logLevel         string
	showVersion      bool
)

func init() {
	defaults := api.DefaultConfig()

	flag.StringVar(
		&catalogPath,
		"path",
		"",
		"catalog root directory")
	flag.StringVar(
		&train,
		"train",
		defaults.Train,
		"train to upgrade, relative to -path")
	flag.StringVar(
		&layout,
		"layout",
		defaults.Layout,
		"item layout: versioned or in-place")
	flag.StringVar(
		&registryTool,
		"registry-tool",
		defaults.RegistryTool,
		"tool used to list image tags: skopeo, crane or static")
	flag.UintVar(
		&registryRetries,
		"registry-retries",
		defaults.RegistryRetries,
		"attempts per tag listing")
	flag.StringVar(
		&staticTags,
		"static-tags",
		"",
		"YAML file mapping image repositories to tags, used by -registry-tool static")
	flag.StringVar(
		&validatorCommand,
		"validator-command",
		"",
		"command run with the item path appended to validate an item (default: built-in layout check)")
	flag.StringVar(
		&include,
		"include",
		"",
		"comma-separated glob patterns of item names to process")
	flag.StringVar(
		&exclude,
		"exclude",
		"",
		"comma-separated glob patterns of item names to skip")
	flag.StringVar(
		&configFile,
		"config",
		"",
		"YAML file with defaults for the flags above")
	flag.StringVar(
		&output,
		"output",
		defaults.Output,
		"report format: text, json or yaml")
	flag.StringVar(
		&loggingType,
		"logging-type",
		"tint",
		"logging type: json, text or tint")
	flag.StringVar(
		&logLevel,
		"log-level",
		"info",
		"logging level: debug, info, warn, error")
	flag.BoolVar(
		&showVersion,
		"version",
		false,
		"print version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := logging.Initialize(loggingType, logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(exitLoggingSetupFailed)
	}

	includeEnv()
	cfg := loadConfiguration()
	trainPath := checkCatalogPath(cfg)

	tags, err := registry.New(cfg.RegistryTool, cfg.RegistryRetries, cfg.StaticTags)
	if err != nil {
		slog.Error("failed to set up registry tool", "tool", cfg.RegistryTool, "error", err)
		os.Exit(exitRegistryToolFailed)
	}

	opts := processing.Options{
		Layout: cfg.Layout,
		Tags:   tags,
		Filter: processing.Filter{Include: cfg.Include, Exclude: cfg.Exclude},
	}
	if len(cfg.ValidatorCommand) > 0 {
		opts.Validator = &processing.CommandValidator{Command: cfg.ValidatorCommand}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := processing.UpdateItemsInTrain(ctx, trainPath, opts)
	if err != nil {
		var notFound *api.TrainNotFoundError
		if errors.As(err, &notFound) {
			slog.Error("train not found", "error", err)
			os.Exit(exitTrainNotFound)
		}
		slog.Error("processing failed", "error", err)
		os.Exit(exitProcessingFailed)
	}

	if err := report.Render(os.Stdout, cfg.Output, trainPath, summary); err != nil {
		slog.Error("failed to write report", "error", err)
		os.Exit(exitReportFailed)
	}

	slog.Info("done", "upgraded", len(summary.Upgraded), "skipped", len(summary.Skipped))
}

// loadConfiguration starts from the defaults or the -config file and applies
// every flag that was set explicitly on top.
func loadConfiguration() *api.Config {
	cfg := api.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = api.LoadConfig(configFile)
		if err != nil {
			slog.Error("failed to load configuration file", "filename", configFile, "error", err)
			os.Exit(exitLoadConfigurationFileFailed)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "train":
			cfg.Train = train
		case "layout":
			cfg.Layout = layout
		case "registry-tool":
			cfg.RegistryTool = registryTool
		case "registry-retries":
			cfg.RegistryRetries = registryRetries
		case "static-tags":
			cfg.StaticTags = staticTags
		case "validator-command":
			cfg.ValidatorCommand = strings.Fields(validatorCommand)
		case "include":
			cfg.Include = splitList(include)
		case "exclude":
			cfg.Exclude = splitList(exclude)
		case "output":
			cfg.Output = output
		}
	})

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(exitInvalidConfiguration)
	}

	filter := processing.Filter{Include: cfg.Include, Exclude: cfg.Exclude}
	if err := filter.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(exitInvalidConfiguration)
	}

	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func includeEnv() {
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to load .env", "error", err)
			os.Exit(exitDotenvError)
		}
		slog.Debug("no .env file found")
	} else {
		slog.Info("using .env file")
	}
}

func checkCatalogPath(cfg *api.Config) string {
	if catalogPath == "" {
		slog.Error("-path not set")
		os.Exit(exitCatalogPathNotSpecified)
	}

	st, err := os.Stat(catalogPath)
	if err != nil {
		slog.Error("failed to check catalog path", "path", catalogPath, "error", err)
		os.Exit(exitCatalogPathCheckFailed)
	}
	if !st.IsDir() {
		slog.Error("-path is not a directory", "path", catalogPath)
		os.Exit(exitCatalogPathCheckFailed)
	}

	return filepath.Join(catalogPath, cfg.Train)
}
