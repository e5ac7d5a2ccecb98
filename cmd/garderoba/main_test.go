package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/erazemk/garderoba/internal/auth"
	"github.com/erazemk/garderoba/internal/config"
	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/store"
)

func TestSeedItems(t *testing.T) {
	s := store.New(db.NewTestDB(t))
	ctx := context.Background()

	seeded, err := seedItems(ctx, s)
	if err != nil {
		t.Fatalf("seedItems: %v", err)
	}
	if len(seeded) != len(sampleLabels) {
		t.Fatalf("seeded %d items, want %d", len(seeded), len(sampleLabels))
	}

	for i, item := range seeded {
		got, err := s.GetItem(ctx, item.ID)
		if err != nil || got == nil {
			t.Fatalf("GetItem(%s): %v", item.ID, err)
		}
		if got.Label != sampleLabels[i] {
			t.Errorf("item %d label = %q, want %q", i, got.Label, sampleLabels[i])
		}
		if got.IsInLaundry != (i%2 == 0) {
			t.Errorf("%s: in laundry = %v", got.Label, got.IsInLaundry)
		}
		if got.IsInLaundry && got.TimesInLaundry < 1 {
			t.Errorf("%s is in laundry with counter %d", got.Label, got.TimesInLaundry)
		}
		wantTimes := i
		if got.IsInLaundry && i == 0 {
			wantTimes = 1
		}
		if got.TimesInLaundry != wantTimes {
			t.Errorf("%s: counter = %d, want %d", got.Label, got.TimesInLaundry, wantTimes)
		}
	}
}

func TestEnsurePassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := ensurePassword(ctx, database, "first-password"); err != nil {
		t.Fatalf("ensurePassword: %v", err)
	}
	hash, _ := store.GetPasswordHash(ctx, database)
	if err := auth.CheckPassword(hash, "first-password"); err != nil {
		t.Fatalf("configured password not stored: %v", err)
	}

	// An existing password is never replaced.
	if err := ensurePassword(ctx, database, "other-password"); err != nil {
		t.Fatalf("ensurePassword: %v", err)
	}
	hash, _ = store.GetPasswordHash(ctx, database)
	if err := auth.CheckPassword(hash, "first-password"); err != nil {
		t.Error("existing password was replaced")
	}
}

func TestEnsurePasswordTooShort(t *testing.T) {
	if err := ensurePassword(context.Background(), db.NewTestDB(t), "short"); err == nil {
		t.Error("expected error for short configured password")
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	if err != nil {
		t.Fatalf("generatePassword: %v", err)
	}
	b, _ := generatePassword(16)
	if len(a) != 16 {
		t.Errorf("length = %d, want 16", len(a))
	}
	if a == b {
		t.Error("two generated passwords are equal")
	}
}

func TestParseConfigFlagsWin(t *testing.T) {
	for _, key := range []string{config.EnvDB, config.EnvAddr, config.EnvLog} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvAddr, ":7000")
	t.Setenv(config.EnvDB, "env.sqlite3")

	cfg, err := parseConfig([]string{"-a", "127.0.0.1:9000", "-e", writeEmptyEnv(t)})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q, want flag value", cfg.Addr)
	}
	if cfg.DBPath != "env.sqlite3" {
		t.Errorf("DBPath = %q, want environment value", cfg.DBPath)
	}
}

func TestParseConfigRejectsArguments(t *testing.T) {
	if _, err := parseConfig([]string{"-e", writeEmptyEnv(t), "extra"}); err == nil {
		t.Error("expected error for unexpected argument")
	}
	if _, err := parseConfig([]string{"-unknown"}); err == nil || err == flag.ErrHelp {
		t.Errorf("expected flag error, got %v", err)
	}
}

func TestNewLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr, file bytes.Buffer
	logger := newLogger(&stdout, &stderr, &file)

	logger.Info("item created")
	logger.Error("commit failed")

	if !strings.Contains(stdout.String(), "item created") || strings.Contains(stdout.String(), "commit failed") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "commit failed") || strings.Contains(stderr.String(), "item created") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if !strings.Contains(file.String(), "item created") || !strings.Contains(file.String(), "commit failed") {
		t.Errorf("log file = %q", file.String())
	}
}

func writeEmptyEnv(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/empty.env"
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	return path
}
