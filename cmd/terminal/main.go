package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/logging"
	"github.com/zappabad/safetrade/internal/venue"
	"github.com/zappabad/safetrade/tui"
)

func main() {
	cfg, err := venue.LoadFromEnv("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Bots == 0 {
		cfg.Bots = 8
	}

	name := flag.String("name", envOr("SAFETRADE_USER", "player"), "screen name (4-10 characters)")
	password := flag.String("password", envOr("SAFETRADE_PASSWORD", "player"), "password (2-10 characters)")
	logFile := flag.String("log", envOr("SAFETRADE_LOG_FILE", "safetrade-terminal.log"), "log file")
	flag.IntVar(&cfg.Bots, "bots", cfg.Bots, "number of simulated participants")
	flag.Parse()

	// The terminal owns stdout, so logs only go to a file.
	logger, err := logging.NewFileOnly(cfg.LogLevel, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *name, *password, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg venue.Config, name, password string, logger *zap.Logger) error {
	v, err := venue.New(cfg, logger)
	if err != nil {
		return err
	}
	defer v.Close()

	// Returning users keep their account when a data dir is configured.
	if err := v.Brokerage.AddUser(name, password); err != nil && !errors.Is(err, broker.ErrNameTaken) {
		return err
	}
	s, err := v.Brokerage.Login(name, password)
	if err != nil {
		return err
	}
	defer v.Brokerage.Logout(s.Token)

	p := tea.NewProgram(tui.NewModel(v.Brokerage, v.Market, string(s.Name), s.Token), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
