package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/garderoba/internal/api"
	"github.com/erazemk/garderoba/internal/auth"
	"github.com/erazemk/garderoba/internal/config"
	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/store"
	"github.com/erazemk/garderoba/internal/web"
)

const usage = `Usage: garderoba [seed] [flags]

Commands:
  (none)                  run the web server
  seed                    add the sample wardrobe to the database and exit

Flags:
  -d, -db <path>          SQLite database path (default: garderoba.sqlite3, env GARDEROBA_DB)
  -a, -addr <host:port>   listen address (default: :8080, env GARDEROBA_ADDR)
  -l, -log <path>         log file path (default: no file, env GARDEROBA_LOG)
  -e, -env <path>         .env file to load (default: .env if present)
  -h, -help               show this help and exit

Environment:
  GARDEROBA_PASSWORD      account password set on first run (default: generated)
`

func main() {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 && args[0] == "seed" {
		command, args = "seed", args[1:]
	}

	cfg, err := parseConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// INFO/WARN go to stdout, ERROR to stderr, and everything to the log file
	// if one is set.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	database, err := openDatabase(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	s := store.New(database)

	switch command {
	case "seed":
		err = runSeed(s)
	default:
		err = runServer(cfg, s)
	}
	if err != nil {
		slog.Error(command+" failed", "error", err)
		database.Close()
		os.Exit(1)
	}
}

// parseConfig layers flags over the environment and the .env file.
func parseConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("garderoba", flag.ContinueOnError)

	var flags config.Config
	fs.StringVar(&flags.DBPath, "db", "", "")
	fs.StringVar(&flags.DBPath, "d", "", "")
	fs.StringVar(&flags.Addr, "addr", "", "")
	fs.StringVar(&flags.Addr, "a", "", "")
	fs.StringVar(&flags.LogPath, "log", "", "")
	fs.StringVar(&flags.LogPath, "l", "", "")

	var envFile string
	fs.StringVar(&envFile, "env", "", "")
	fs.StringVar(&envFile, "e", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	cfg.Override(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	slog.Info("database ready", "path", path)
	return database, nil
}

func runSeed(s *store.Store) error {
	items, err := seedItems(context.Background(), s)
	if err != nil {
		return err
	}
	slog.Info("sample items added", "count", len(items))
	return nil
}

func runServer(cfg *config.Config, s *store.Store) error {
	ctx := context.Background()

	if err := ensurePassword(ctx, s.DB(), cfg.Password); err != nil {
		return err
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, s.DB())
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	m := metrics.New()
	s.Subscribe(m.Observe)

	webRouter, err := web.NewRouter(s, m, jwtSecret)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(s, m, jwtSecret))
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("/", webRouter)

	// The event stream clears its own write deadline.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// ensurePassword sets the account password on first run. A configured
// password is used as is; otherwise one is generated and printed once.
func ensurePassword(ctx context.Context, database *sql.DB, configured string) error {
	hash, err := store.GetPasswordHash(ctx, database)
	if err != nil {
		return fmt.Errorf("loading password: %w", err)
	}
	if hash != "" {
		return nil
	}

	password := configured
	if password == "" {
		password, err = generatePassword(16)
		if err != nil {
			return fmt.Errorf("generating password: %w", err)
		}
	}

	hash, err = auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("setting initial password: %w", err)
	}
	if err := store.SetPasswordHash(ctx, database, hash); err != nil {
		return err
	}

	if configured == "" {
		printInitResult(password)
	} else {
		slog.Info("initial password set from environment")
	}
	return nil
}

// printInitResult prints the generated password to stdout.
func printInitResult(password string) {
	fmt.Println("Account created.")
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("You can change it under Settings after logging in.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
