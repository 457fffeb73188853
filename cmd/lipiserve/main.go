// Copyright 2026 The LipiServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the bilingual completion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

LipiServe provides on-device word completion and next-word prediction for
Kannada and Latin script typing. It can operate as a MessagePack IPC server
for integration with soft keyboards and editors, or as a CLI application for
testing and debugging.

The server mode loads dictionaries, ngram tables and the personal learning
store on a background goroutine, so the host process gets a responsive (if
briefly empty) completion surface immediately after spawn. Suggestions are
ranked by frequency, sentence context and personal usage, then filtered to
match the script mix of the active keyboard layout.

# Usage

Start the server with default settings:

	lipiserve

Use a custom data directory and enable debug mode:

	lipiserve -data /path/to/dicts -d

Run in CLI mode for interactive testing:

	lipiserve -c -layout kannada_phonetic -limit 10

The data directory should contain the dictionary and ngram text files named
in the [dict] config section: words_en.txt, words_kn.txt, bigrams.txt and
trigrams.txt. Each line is a word (or word pair/triple) followed by a TAB
and a frequency count. Missing files degrade to empty tables rather than
failing startup.

# Configuration

Runtime configuration is managed through a TOML file covering server limits,
ranking weights, fuzzy matching and the learning store:

	[server]
	max_limit = 64
	min_prefix = 1
	max_prefix = 60
	enable_filter = true

	[fuzzy]
	max_distance = 2
	min_prefix = 3

	[learn]
	enabled = true
	max_age_days = 90

The config file is automatically created with defaults if it doesn't exist.
Server mode watches the file and applies changes without restart.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Requests carry an
"op" field and are processed synchronously, with microsecond timing included
in completion responses.

Send a completion request:

	{"id": "q1", "op": "suggest", "p": "nam", "layout": "kannada_phonetic", "l": 5}

Receive suggestions with rank, source and script:

	{"id": "q1", "s": [{"w": "ನಮಸ್ಕಾರ", "r": 1, "src": 4, "scr": 1}], "c": 1, "t": 180}

Commit words as the user accepts them so sentence context and the personal
store stay current, then ask for next-word predictions on word boundaries:

	{"id": "c1", "op": "commit", "w": "ನಮಸ್ಕಾರ"}
	{"id": "n1", "op": "next", "layout": "kannada_phonetic", "l": 3}

Abbreviation, config, learning maintenance, stats and health requests share
the same envelope; see the server package for the full operation set.

# Server Mode

The default mode starts a MessagePack IPC server that processes requests
from stdin and writes responses to stdout. This design enables integration
with keyboards and editors through plain process communication. All logging
and the startup banner go to stderr so stdout stays a clean frame stream.

	srv := server.New(eng, config, configPath)
	err := srv.Start()

The server validates prefix lengths, filters junk input, clamps limits and
picks up config file edits through a debounced watcher, keeping long-running
sessions tunable without a restart.

# CLI Mode

CLI mode provides an interactive interface for testing and debugging
completion behavior. It reads words from stdin and displays suggestions with
source, script and score information.

	inputHandler := cli.NewInputHandler(eng, layout, limit, noFilter)
	err := inputHandler.Start()

Prefix a word with + to commit it (updating context and the learning store)
and type :reset to clear sentence context. This mode is primarily intended
for development and waits for loading to finish before prompting.

# Completion Engine

The core functionality is provided by the engine package, which ties the
Patricia trie dictionaries, the ngram model, the learning store and the
abbreviation expander behind a single query surface.

	eng := engine.New(cfg, dataDir, dbPath)
	eng.InitializeAsync(nil)
	result := eng.Suggestions("nam", "kannada_phonetic", 5)

Queries are answered from any lifecycle state: before loading finishes they
return empty results rather than blocking or failing. Repeated queries for
the same prefix are served from an LRU cache that commit, reset and config
changes invalidate.

# Command Line Flags

The following flags control application behavior:

	-version
	    Show current version
	-data string
	    Directory containing dictionary and ngram files (default "data/")
	-config string
	    Path to a custom config.toml (default: user config dir)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-layout string
	    Keyboard layout for CLI suggestions (default from config)
	-limit int
	    Number of suggestions to return in CLI mode (default from config)
	-no-filter
	    Disable input filtering for debugging
	-words int
	    Maximum words to load per dictionary (0 for all)

The application automatically resolves data and config paths relative to the
executable location, supporting both development and production deployments.

# Learning

Committed words feed a personal store kept in a local SQLite database under
the user config directory. Entries age out and are pruned on startup per the
[learn] config section; learn_clear and prune requests manage the store at
runtime. Everything stays on the device.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bhasha-kb/lipiserve/internal/cli"
	"github.com/bhasha-kb/lipiserve/internal/logger"
	"github.com/bhasha-kb/lipiserve/internal/utils"
	"github.com/bhasha-kb/lipiserve/pkg/config"
	"github.com/bhasha-kb/lipiserve/pkg/engine"
	"github.com/bhasha-kb/lipiserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "lipiserve"
	gh      = "https://github.com/bhasha-kb/lipiserve"
)

// sigHandler exits normally on OS signals, running cleanup first so the
// learning store is closed cleanly.
func sigHandler(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		if cleanup != nil {
			cleanup()
		}
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	defaultConfig := config.DefaultConfig()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "data/", "Directory containing dictionary and ngram files")
	configFile := flag.String("config", "", "Path to a custom config.toml")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	layout := flag.String("layout", defaultConfig.CLI.DefaultLayout, "Keyboard layout for CLI suggestions")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to return")
	noFilter := flag.Bool("no-filter", defaultConfig.CLI.DefaultNoFilter, "Disable input filtering (DBG only) - accepts raw symbols, numbers, etc")
	wordLimit := flag.Int("words", defaultConfig.Dict.MaxWords, "Maximum number of words to load per dictionary (use 0 for all words)")

	flag.Parse()

	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if *showVersion {
		vlog := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

		styles := log.DefaultStyles()

		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})

		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

		vlog.SetStyles(styles)

		vlog.Print("")
		vlog.Print("[ LipiServe ] Bilingual word completion, on device!")
		vlog.Print("", "version", Version)
		vlog.Print("")
		vlog.Print("use -h or --help to see available options")
		vlog.Print("Github Repo", "gh", gh)

		os.Exit(0)
	}

	// Path resolver for robust data and config path handling
	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Error("Either env is not set or system is not supported")
		log.Error("Did you forget to run the build or install scripts?")
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	// Pathfinder for dict dir
	resolvedDataDir, err := pathResolver.GetDataDir(*dataDir)
	if err != nil {
		log.Fatalf("Failed to resolve data dir: (%v)", err)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if configPath != "" {
		log.Debugf("Using config file: (%s)", configPath)
	} else {
		log.Warn("No writable config location, running with builtin defaults")
	}

	// Flags set explicitly on the command line beat config file values.
	if setFlags["words"] {
		appConfig.Dict.MaxWords = *wordLimit
	}

	dbPath := appConfig.Learn.DBFile
	if dbPath != "" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(pathResolver.GetConfigDir(), dbPath)
	}
	log.Debugf("Init engine: maxWords=[%d], learnDB=(%s)", appConfig.Dict.MaxWords, dbPath)

	eng := engine.New(appConfig, resolvedDataDir, dbPath)
	sigHandler(eng.Shutdown)

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	// NOTE: Server interface has vastly different parameters compared to CLI and what it accepts.
	if *cliMode {
		log.SetReportTimestamp(false)

		cliLayout := appConfig.CLI.DefaultLayout
		if setFlags["layout"] {
			cliLayout = *layout
		}
		cliLimit := appConfig.CLI.DefaultLimit
		if setFlags["limit"] {
			cliLimit = *limit
		}
		cliNoFilter := appConfig.CLI.DefaultNoFilter
		if setFlags["no-filter"] {
			cliNoFilter = *noFilter
		}
		log.Debug("Input info:",
			"layout", cliLayout,
			"limit", cliLimit,
			"noFilter", cliNoFilter)

		ready := make(chan struct{})
		eng.InitializeAsync(func() { close(ready) })
		<-ready

		inputHandler := cli.NewInputHandler(eng, cliLayout, cliLimit, cliNoFilter)
		if err := inputHandler.Start(); err != nil {
			eng.Shutdown()
			log.Fatalf("CLI error: %v", err)
		}
		eng.Shutdown()
		return
	}

	log.Debug("spawning IPC")
	eng.InitializeAsync(func() { log.Debug("engine ready") })

	srv := server.New(eng, appConfig, configPath)

	if configPath != "" {
		watcher, err := config.Watch(configPath, func(cfg *config.Config) {
			eng.ApplyConfig(cfg)
			srv.ApplyConfig(cfg)
		})
		if err != nil {
			log.Warnf("Config watcher disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	showStartupInfo(resolvedDataDir)

	if err := srv.Start(); err != nil {
		eng.Shutdown()
		log.Fatalf("Failed to start server: %v", err)
	}
	eng.Shutdown()
}

// showStartupInfo displays some basic info about the init process.
// Everything goes to stderr: stdout belongs to the msgpack stream.
func showStartupInfo(dataDir string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " LipiServe ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("data dir: ( %s )", dataDir)
	log.Info("status: loading in background")
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
