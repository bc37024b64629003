package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/nhle/mytodo/internal/app"
	"github.com/nhle/mytodo/internal/model"
	"github.com/nhle/mytodo/internal/notify"
	"github.com/nhle/mytodo/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns stdout, so logs go to a file next to the database.
	closeLog, err := setupLogging(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		fmt.Printf("failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if _, err := s.EnsureDefaultList(context.Background(), "Personal"); err != nil {
		fmt.Printf("failed to create default list: %v\n", err)
		os.Exit(1)
	}

	// The poller gets its own store handle so its ticks never contend
	// with the interactive session.
	pollerStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open database for notifications: %v\n", err)
		os.Exit(1)
	}
	defer pollerStore.Close()

	poller := notify.New(
		pollerStore,
		func() bool { return cfg.NotificationsEnabled },
		deliverDesktop,
	)
	poller.Start()
	defer poller.Stop()

	m := app.New(s, cfg, poller)
	program := tea.NewProgram(m, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}

	if fm, ok := final.(app.Model); ok && fm.RestartRequested() {
		fmt.Println("Theme changed. Restart the application to apply it.")
	}
}

// setupLogging redirects the standard logger to a file so background
// errors survive the alt screen.
func setupLogging(dbPath string) (func(), error) {
	logPath := filepath.Join(filepath.Dir(dbPath), "mytodo.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return func() { f.Close() }, nil
}

// deliverDesktop shows a desktop notification for a due task, falling
// back to the terminal bell when the desktop bus is unavailable.
func deliverDesktop(t model.Task) error {
	if err := beeep.Notify("Task Due Now!", t.Title, ""); err != nil {
		if beepErr := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); beepErr != nil {
			return fmt.Errorf("desktop notification: %w", err)
		}
	}
	return nil
}
