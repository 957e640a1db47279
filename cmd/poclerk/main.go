// poclerk is the terminal UI for uploading and searching purchase
// orders. Uploads shell out to poparse; search reads the register
// directly.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"poclerk/internal/config"
	"poclerk/internal/store"
	"poclerk/internal/tui"
)

func main() {
	cfg := config.LoadConfig()

	// The TUI owns the terminal, so store logs are discarded.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	p := tea.NewProgram(tui.New(cfg.TUI.ParserBin, st), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
