package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/heapkit/heapkit/cmd/heapscope/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse flags first (before positional args)
	args := os.Args[1:]
	debugMode := false

	// Extract --debug/-d flag
	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			debugMode = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize logger (must be before any logging calls)
	if err := logger.Init(logger.Options{
		Enabled: debugMode,
		Level:   slog.LevelDebug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	if filteredArgs[0] == "--help" || filteredArgs[0] == "-h" {
		printHelp()
		os.Exit(0)
	}

	if filteredArgs[0] == "--version" || filteredArgs[0] == "-v" {
		fmt.Printf("heapscope %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}

	snapPath := filteredArgs[0]
	logger.Info("starting heapscope", "path", snapPath, "debug", debugMode)

	// Check if file exists
	if _, err := os.Stat(snapPath); err != nil {
		logger.Error("snapshot file not found", "path", snapPath, "error", err)
		fmt.Fprintf(os.Stderr, "Error: snapshot file not found: %s\n", snapPath)
		os.Exit(1)
	}

	// Create the TUI model
	m := NewModel(snapPath)

	// Create the Bubbletea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	// Run the program
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	logger.Info("heapscope exited normally")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapscope [options] <snapshot-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'heapscope --help' for more information.\n")
}

func printHelp() {
	fmt.Println("heapscope - Interactive TUI for heap snapshot files")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapscope [options] <snapshot-file>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Launches an interactive terminal UI for exploring a heap snapshot")
	fmt.Println("  written by the heapkit collector (or 'heapctl stress --snapshot').")
	fmt.Println()
	fmt.Println("  Features:")
	fmt.Println("    - Split-pane layout (type table + cell table with detail)")
	fmt.Println("    - Keyboard navigation (vim-style keys supported)")
	fmt.Println("    - Follow edges through the object graph (Enter)")
	fmt.Println("    - Filter types live (/)")
	fmt.Println("    - Isolate unreachable cells (u)")
	fmt.Println("    - Copy cell addresses to the clipboard (c)")
	fmt.Println()
	fmt.Println("  Navigation:")
	fmt.Println("    ↑/k, ↓/j    Navigate up/down")
	fmt.Println("    Tab         Switch between type and cell panes")
	fmt.Println("    Enter       Follow the selected cell's first edge")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.heapscope/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  heapctl stress --cells 50000 --snapshot heap.hksn")
	fmt.Println("  heapscope heap.hksn")
	fmt.Println()
	fmt.Println("For non-interactive operations, use the 'heapctl' command instead.")
}
