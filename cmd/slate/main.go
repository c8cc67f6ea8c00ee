package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/kwhalen/slate/internal/backend"
	"github.com/kwhalen/slate/internal/config"
	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/engine"
	"github.com/kwhalen/slate/internal/logging"
	"github.com/kwhalen/slate/internal/search"
	"github.com/kwhalen/slate/internal/store"
	"github.com/kwhalen/slate/internal/tui"
	"github.com/kwhalen/slate/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

func main() {
	var showVersion bool
	var demo bool
	var headlessSync bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&demo, "demo", false, "run on bundled sample data, no server needed")
	flag.BoolVar(&headlessSync, "sync", false, "sync every collection for offline use and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("slate %s\n", Version)
		return
	}

	if err := run(demo, headlessSync); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(demo, headlessSync bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if demo {
		// One-off override, never written back
		cfg.Server.Demo = true
	}

	logger, err := logging.Setup(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.Null()
	}
	slog.SetDefault(logger)

	logger.Info("starting slate", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	campus, monitor, err := backend.New(cfg.Server.URL, cfg.Server.Token, cfg.Server.Demo, logger)
	if err != nil {
		return fmt.Errorf("failed to create campus client: %w", err)
	}
	monitor.Start()
	defer monitor.Stop()

	cache, err := store.NewCampusStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	searcher := search.NewService(campus, logger)

	eng, err := engine.New(engine.Deps{
		Repo:     campus,
		Grades:   campus,
		Messages: campus,
		Identity: campus,
		Monitor:  monitor,
		Cache:    cache,
		Searcher: searcher,
		Logger:   logger,
	}, cfg.EngineOptions())
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if err := eng.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer eng.Close()

	// Remember who signed in so the next start can work offline
	if session, ok := eng.Session(); ok && !cfg.Server.Demo {
		if cfg.Session.UserID != session.UserID || cfg.Session.Role != string(session.Role) {
			cfg.RememberSession(session)
			if err := config.Save(cfg); err != nil {
				logger.Warn("could not persist session", "error", err)
			}
		}
	}

	if headlessSync {
		return runHeadlessSync(eng)
	}

	model := tui.New(eng)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := finalModel.(tui.Model); ok && m.LoggedOut() {
		if err := config.ClearServer(config.Dir()); err != nil {
			return fmt.Errorf("signed out, but clearing saved settings failed: %w", err)
		}
		fmt.Println("Signed out. Run slate again to set up a new account.")
	}

	logger.Info("shutting down")
	return nil
}

// runHeadlessSync pulls every collection and prints the divergence
// report, for cron jobs and pre-flight syncs before leaving campus
func runHeadlessSync(eng *engine.Engine) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Println("Syncing all collections for offline use...")
	reports, err := eng.SyncForOffline(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	for _, r := range reports {
		mark := "✓"
		if r.HasConflicts() {
			mark = "!"
		}
		fmt.Printf("%s %s\n", mark, r.Summary())
	}
	fmt.Println("Done. Cached data will be available offline.")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to slate!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var serverURL, token string
	var session domain.Session

	for {
		fmt.Print("Enter your campus server URL (e.g., https://campus.example.edu): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimSpace(input)

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		fmt.Print("Paste your access token (from the campus portal): ")
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))

		if token == "" {
			fmt.Println("Token cannot be empty. Please try again.")
			fmt.Println()
			continue
		}

		fmt.Println()
		session, err = signInWithSpinner(serverURL, token, logger)
		if err != nil {
			fmt.Printf("\n✗ Could not sign in: %v\n", err)
			fmt.Println("Please check the URL and token and try again.")
			fmt.Println()
			continue
		}
		break
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = token
	cfg.RememberSession(session)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run slate again to start the application.")

	return nil
}

// signInWithSpinner checks the credentials against the server with a
// visual spinner
func signInWithSpinner(serverURL, token string, logger *slog.Logger) (domain.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	campus, _, err := backend.New(serverURL, token, false, logger)
	if err != nil {
		return domain.Session{}, err
	}

	type result struct {
		session domain.Session
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		session, err := campus.CurrentSession(ctx)
		resultCh <- result{session, err}
	}()

	frame := 0
	fmt.Printf("\r%s Signing in...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if res.err != nil {
				return domain.Session{}, res.err
			}
			fmt.Printf("✓ Signed in as %s (%s)\n", res.session.Name, res.session.Role)
			return res.session, nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Signing in...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return domain.Session{}, fmt.Errorf("sign in timed out")
		}
	}
}
