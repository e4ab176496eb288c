package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/systemstart/catalog-update/pkg/strategy"
)

var version = "dev"

const (
	_ = iota
	exitStrategyFailed
)

var (
	datetimeLayout string
	appVersionKey  string
	showVersion    bool
)

func init() {
	flag.StringVar(
		&datetimeLayout,
		"datetime-layout",
		"",
		"pick the latest tag parsed with this Go time layout instead of the highest semantic version")
	flag.StringVar(
		&appVersionKey,
		"app-version-key",
		"",
		"key whose chosen tag is reported as the app version")
	flag.BoolVar(
		&showVersion,
		"version",
		false,
		"print version and exit")
}

// semver-strategy is an upgrade_strategy program. It reads the available tags
// per key on stdin and prints the chosen tags on stdout. Stderr is captured by
// catalog-update and shown as the failure reason, so it stays plain text.
func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	policy := strategy.SemanticVersioning
	if datetimeLayout != "" {
		policy = strategy.DatetimeVersioning(datetimeLayout)
	}

	if err := strategy.Respond(os.Stdin, os.Stdout, policy, appVersionKey); err != nil {
		fmt.Fprintf(os.Stderr, "semver-strategy: %v\n", err)
		os.Exit(exitStrategyFailed)
	}
}
