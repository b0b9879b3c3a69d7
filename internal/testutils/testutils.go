package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"github.com/nfrund/goby-channels/internal/config"
	"github.com/nfrund/goby-channels/internal/logging"
)

// ConfigForTests loads the .env.test file at the project root into the test's
// environment and returns the resulting configuration.
func ConfigForTests(t *testing.T) config.Provider {
	t.Helper()

	path, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			break
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}

	env, err := godotenv.Read(filepath.Join(path, ".env.test"))
	if err != nil {
		t.Fatalf("failed to load .env.test file: %v", err)
	}
	for key, value := range env {
		t.Setenv(key, value)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}
	logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())
	return cfg
}
