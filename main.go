package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/logging"
	"github.com/hersh/gmtris/internal/progression"
	"github.com/hersh/gmtris/internal/tui"
)

// This is the standalone single-player entry point.
// For versus play, use:
//   Server: go run ./cmd/server
//   Client: go run ./cmd/client -server ws://localhost:8080/ws -name YourName

func main() {
	name := flag.String("name", "Player", "Player name")
	levels := flag.String("levels", "", "YAML level table (defaults to the built-in curve)")
	seed := flag.Int64("seed", 0, "Piece sequence seed (0 picks one from the clock)")
	logPath := flag.String("log", "", "Log file (logging is off when empty)")
	debug := flag.Bool("debug", false, "Debug logging")
	multiplier := flag.Int("level-multiplier", 1, "Scale every level increment")
	alwaysClear := flag.Bool("always-clear", false, "Grant the section clear bonus regardless of time")
	flag.Parse()

	log := zap.NewNop()
	if *logPath != "" {
		var err error
		if log, err = logging.New(*logPath, *debug); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	defer log.Sync()

	table := progression.Default()
	if *levels != "" {
		var err error
		if table, err = progression.LoadFile(*levels); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	cfg := tui.Config{
		Name:   *name,
		Table:  table,
		Logger: log,
		Progression: progression.Options{
			LevelMultiplier:    *multiplier,
			AlwaysClearSection: *alwaysClear,
		},
	}
	if *seed != 0 {
		cfg.Seed = func() int64 { return *seed }
	}

	// no connection: single-player only
	p := tea.NewProgram(tui.NewModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
