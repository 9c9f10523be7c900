package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("url-service %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCLI_MigrateAndShorten(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("URL_SERVICE_DATABASE_DRIVER", "sqlite")
	t.Setenv("URL_SERVICE_DATABASE_PATH", filepath.Join(dir, "links.db"))
	t.Setenv("URL_SERVICE_CACHE_DRIVER", "memory")
	t.Setenv("URL_SERVICE_SERVICE_BASE_URL", "https://sho.rt")
	t.Setenv("URL_SERVICE_LOG_LEVEL", "error")

	if out := runCLI(t, "migrate"); !strings.Contains(out, "Migrations applied") {
		t.Errorf("migrate output = %q", out)
	}

	out := strings.TrimSpace(runCLI(t, "shorten", "--url", "https://example.com/cli", "--code", "cli1"))
	if out != "https://sho.rt/cli1" {
		t.Errorf("shorten output = %q", out)
	}

	// Same long URL reuses the stored mapping.
	again := strings.TrimSpace(runCLI(t, "shorten", "--url", "https://example.com/cli", "--code", ""))
	if again != out {
		t.Errorf("second shorten = %q, want %q", again, out)
	}
}
