package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/specscrape/internal/config"
	"github.com/nao1215/specscrape/internal/store"
)

// newCatalogServer serves a two brand catalog in the default markup.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/makers.php3": `<html><body><table><tr>
			<td><a href="/acme.php">Acme</a></td>
			<td><a href="/globex.php">Globex</a></td>
		</tr></table></body></html>`,
		"/acme.php": `<html><body>
			<div class="makers"><ul>
				<li><a href="/rocket.php">Rocket</a></li>
				<li><a href="/anvil.php">Anvil</a></li>
			</ul></div></body></html>`,
		"/globex.php": `<html><body>
			<div class="makers"><a href="/dome.php">Dome</a></div></body></html>`,
		"/rocket.php": `<div id="specs-list"><table>
			<tr><td>Weight</td><td>10kg</td></tr>
			<tr><td>Fuel</td><td>Solid</td></tr></table></div>`,
		"/anvil.php": `<div id="specs-list"><table>
			<tr><td>Weight</td><td>50kg</td></tr></table></div>`,
		"/dome.php": `<html><body>no specs</body></html>`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeEmptyConfig keeps tests independent of any .specscrape on the machine.
func writeEmptyConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// fastFlags disable the courtesy delay and bound retries.
func fastFlags() []string {
	return []string{
		"--delay-min", "0s",
		"--delay-max", "0s",
		"--retry-wait", "1ms",
		"--max-attempts", "2",
	}
}

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	if cmd.Use != "crawl [root-url]" {
		t.Errorf("expected use 'crawl [root-url]', got %q", cmd.Use)
	}

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"store", "s", config.DefaultStorePath},
		{"delay-min", "", "10s"},
		{"delay-max", "", "20s"},
		{"retry-wait", "", "30m0s"},
		{"retry-multiplier", "", "1"},
		{"retry-max-wait", "", "0s"},
		{"max-attempts", "", "0"},
		{"timeout", "t", "0s"},
		{"workers", "w", "1"},
		{"resume", "", config.ResumeBrand},
		{"proxy", "", ""},
		{"user-agent", "", ""},
		{"rate-limit", "", "0"},
		{"metrics-addr", "", ""},
		{"json-log", "", "false"},
		{"config", "c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.def {
				t.Errorf("expected default %q, got %q", tt.def, flag.DefValue)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	noEnv := func(string) (string, bool) { return "", false }

	parse := func(t *testing.T, args ...string) *config.Config {
		t.Helper()

		cmd := NewCrawlCmd()
		cmd.Flags().Bool("verbose", false, "")
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd, cmd.Flags().Args(), noEnv)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		return cfg
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := parse(t, "-c", writeEmptyConfig(t, t.TempDir()))

		if cfg.RootURL != config.DefaultRootURL {
			t.Errorf("RootURL = %q", cfg.RootURL)
		}
		if cfg.StorePath != config.DefaultStorePath {
			t.Errorf("StorePath = %q", cfg.StorePath)
		}
		if cfg.DelayMin != config.DefaultDelayMin || cfg.DelayMax != config.DefaultDelayMax {
			t.Errorf("delay = %v..%v", cfg.DelayMin, cfg.DelayMax)
		}
		if cfg.RetryWait != config.DefaultRetryWait || cfg.MaxAttempts != 0 {
			t.Errorf("retry = %v, %d attempts", cfg.RetryWait, cfg.MaxAttempts)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config is invalid: %v", err)
		}
	})

	t.Run("file, env and flags are layered", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := `store: from-file.xlsx
workers: 3
userAgent: file-agent
delay:
  min: 1s
  max: 2s
selectors:
  productEntry: ul.products
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		env := map[string]string{
			config.EnvStore:   "from-env.db",
			config.EnvWorkers: "5",
		}
		lookup := func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		}

		cmd := NewCrawlCmd()
		cmd.Flags().Bool("verbose", false, "")
		args := []string{"-c", path, "-w", "2", "--delay-max", "4s", "https://catalog.example.com/"}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, cmd.Flags().Args(), lookup)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.StorePath != "from-env.db" {
			t.Errorf("StorePath = %q, want env value", cfg.StorePath)
		}
		if cfg.Workers != 2 {
			t.Errorf("Workers = %d, want flag value 2", cfg.Workers)
		}
		if cfg.UserAgent != "file-agent" {
			t.Errorf("UserAgent = %q, want file value", cfg.UserAgent)
		}
		if cfg.DelayMin != time.Second || cfg.DelayMax != 4*time.Second {
			t.Errorf("delay = %v..%v, want 1s..4s", cfg.DelayMin, cfg.DelayMax)
		}
		if cfg.Selectors.ProductEntry != "ul.products" || cfg.Selectors.DetailRow != "tr" {
			t.Errorf("Selectors = %+v", cfg.Selectors)
		}
		if cfg.RootURL != "https://catalog.example.com/" {
			t.Errorf("RootURL = %q, want argument", cfg.RootURL)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, nil, noEnv); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("invalid env value", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", writeEmptyConfig(t, t.TempDir())}); err != nil {
			t.Fatal(err)
		}
		lookup := func(k string) (string, bool) {
			if k == config.EnvWorkers {
				return "many", true
			}
			return "", false
		}
		if _, err := buildConfig(cmd, nil, lookup); err == nil {
			t.Error("expected error for non-numeric workers")
		}
	})
}

func TestRunCrawlCmd(t *testing.T) {
	t.Parallel()

	t.Run("crawls into sqlite and resumes", func(t *testing.T) {
		t.Parallel()

		srv := newCatalogServer(t)
		dir := t.TempDir()
		storePath := filepath.Join(dir, "catalog.db")

		runOnce := func() string {
			var stdout, stderr bytes.Buffer
			root := NewRootCmd()
			root.SetOut(&stdout)
			root.SetErr(&stderr)
			args := append([]string{"crawl", srv.URL + "/makers.php3",
				"-s", storePath, "-c", writeEmptyConfig(t, dir)}, fastFlags()...)
			root.SetArgs(args)

			if err := root.Execute(); err != nil {
				t.Fatalf("crawl failed: %v\n%s", err, stderr.String())
			}
			return stdout.String()
		}

		first := runOnce()
		if !strings.Contains(first, "CRAWL SUMMARY") || !strings.Contains(first, "stored:   3") {
			t.Errorf("unexpected first summary:\n%s", first)
		}

		second := runOnce()
		if !strings.Contains(second, "stored:   0") || !strings.Contains(second, "skipped:  2") {
			t.Errorf("unexpected second summary:\n%s", second)
		}

		st, err := store.Open(context.Background(), storePath, store.WithCreateIfNotExists(false))
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		defer st.Close()

		if st.Len() != 3 {
			t.Errorf("store holds %d rows, want 3", st.Len())
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"crawl", "not a url", "-c", writeEmptyConfig(t, t.TempDir())})

		err := root.Execute()
		if err == nil {
			t.Fatal("expected configuration error")
		}
		if !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unreachable root fails after retries", func(t *testing.T) {
		t.Parallel()

		srv := newCatalogServer(t)
		dir := t.TempDir()

		var stdout bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&stdout)
		root.SetErr(&bytes.Buffer{})
		args := append([]string{"crawl", srv.URL + "/missing.php",
			"-s", filepath.Join(dir, "out.xlsx"), "-c", writeEmptyConfig(t, dir)}, fastFlags()...)
		root.SetArgs(args)

		if err := root.Execute(); err == nil {
			t.Fatal("expected error for a missing root page")
		}
		if !strings.Contains(stdout.String(), "CRAWL SUMMARY") {
			t.Error("expected the summary to be printed for a failed run")
		}
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		t.Parallel()

		srv := newCatalogServer(t)
		dir := t.TempDir()

		var stderr bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&stderr)
		args := append([]string{"crawl", srv.URL + "/makers.php3",
			"-s", filepath.Join(dir, "out.xlsx"), "-c", writeEmptyConfig(t, dir),
			"--metrics-addr", "127.0.0.1:0", "--json-log"}, fastFlags()...)
		root.SetArgs(args)

		if err := root.Execute(); err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		if !strings.Contains(stderr.String(), `"msg":"serving metrics"`) {
			t.Errorf("expected JSON log line for the metrics endpoint:\n%s", stderr.String())
		}
	})
}
