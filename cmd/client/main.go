package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hersh/gmtris/internal/logging"
	"github.com/hersh/gmtris/internal/netclient"
	"github.com/hersh/gmtris/internal/progression"
	"github.com/hersh/gmtris/internal/tui"
)

func main() {
	serverAddr := flag.String("server", "ws://localhost:8080/ws", "WebSocket server address")
	playerName := flag.String("name", "", "Player name (defaults to OS username)")
	levels := flag.String("levels", "", "YAML level table (defaults to the built-in curve)")
	logPath := flag.String("log", "", "Log file (logging is off when empty)")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	name := *playerName
	if name == "" {
		if u, err := user.Current(); err == nil && u.Username != "" {
			name = u.Username
		} else {
			name = "Player"
		}
	}

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

	// Connect to server
	client, err := netclient.New(*serverAddr, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to server at %s: %v\n", *serverAddr, err)
		fmt.Fprintf(os.Stderr, "Make sure the server is running (go run ./cmd/server)\n")
		os.Exit(1)
	}
	defer client.Close()

	model := tui.NewModel(tui.Config{
		Name:   name,
		Table:  table,
		Logger: log,
		Conn:   client,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	// Wire the program into the client so readPump can send tea.Msgs
	client.SetProgram(p)
	client.Start()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
