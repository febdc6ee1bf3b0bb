package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("GROCERIES_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "" || cfg.TUI != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestSave_KeepsBackupOfPreviousConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GROCERIES_CONFIG_DIR", dir)

	if err := Save(&Config{APIBaseURL: "http://one"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(&Config{APIBaseURL: "http://two"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "config.json.bak"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(raw), "http://one") {
		t.Fatalf("backup should hold the previous config, got %s", raw)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://two" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
}

func TestSave_ConcurrentWritersDoNotCorruptConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GROCERIES_CONFIG_DIR", dir)

	const n = 32
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := Save(&Config{APIBaseURL: fmt.Sprintf("http://host-%d", i)}); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent Save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("read config.json: %v", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("config.json unparseable: %v\n%s", err, raw)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range ents {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GROCERIES_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSetGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{key: "apiBaseURL", value: "http://localhost:5000/api/groceries/v1"},
		{key: "format", value: "table"},
		{key: "format", value: "yaml", wantErr: true},
		{key: "order", value: "catalog"},
		{key: "order", value: "random", wantErr: true},
		{key: "tui.theme", value: "dark"},
		{key: "tui.theme", value: "pink", wantErr: true},
		{key: "nope", value: "x", wantErr: true},
	}
	for _, tc := range tests {
		var cfg Config
		err := cfg.Set(tc.key, tc.value)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Set(%q, %q): expected error", tc.key, tc.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("Set(%q, %q): %v", tc.key, tc.value, err)
			continue
		}
		got, err := cfg.Get(tc.key)
		if err != nil || got != tc.value {
			t.Errorf("Get(%q) = %q, %v; want %q", tc.key, got, err, tc.value)
		}
	}
}

func TestSet_ClearingThemeDropsTUISection(t *testing.T) {
	t.Parallel()

	var cfg Config
	if err := cfg.Set("tui.theme", "light"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("tui.theme", ""); err != nil {
		t.Fatal(err)
	}
	if cfg.TUI != nil {
		t.Fatalf("expected TUI section to be dropped, got %+v", cfg.TUI)
	}
	if got := cfg.Map(); len(got) != len(Keys()) {
		t.Fatalf("Map() = %v", got)
	}
}
