package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/flaghunt/internal/config"
	"github.com/nao1215/flaghunt/internal/database"
	"github.com/nao1215/flaghunt/internal/model"
)

// TestNewHuntCmd tests the hunt command creation.
func TestNewHuntCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHuntCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "hunt <username> <password>" {
			t.Errorf("expected use 'hunt <username> <password>', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has server flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("server")
		if flag == nil {
			t.Fatal("expected server flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultServer {
			t.Errorf("expected default %q, got %q", config.DefaultServer, flag.DefValue)
		}
	})

	t.Run("has port flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("port")
		if flag == nil {
			t.Fatal("expected port flag")
		}
		if flag.Shorthand != "p" {
			t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
		}
		if flag.DefValue != "443" {
			t.Errorf("expected default '443', got %q", flag.DefValue)
		}
	})

	t.Run("has workers flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("workers")
		if flag == nil {
			t.Fatal("expected workers flag")
		}
		if flag.Shorthand != "w" {
			t.Errorf("expected shorthand 'w', got %q", flag.Shorthand)
		}
	})

	t.Run("has quota flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("quota")
		if flag == nil {
			t.Fatal("expected quota flag")
		}
		if flag.Shorthand != "q" {
			t.Errorf("expected shorthand 'q', got %q", flag.Shorthand)
		}
		if flag.DefValue != "5" {
			t.Errorf("expected default '5', got %q", flag.DefValue)
		}
	})

	t.Run("has unbounded retry and redirect caps by default", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"max-retries", "max-redirects"} {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Fatalf("expected %s flag", name)
			}
			if flag.DefValue != "0" {
				t.Errorf("expected %s default '0', got %q", name, flag.DefValue)
			}
		}
	})

	t.Run("has verify-tls flag defaulting to false", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("verify-tls")
		if flag == nil {
			t.Fatal("expected verify-tls flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has tor-timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("tor-timeout")
		if flag == nil {
			t.Fatal("expected tor-timeout flag")
		}
		if flag.Shorthand != "T" {
			t.Errorf("expected shorthand 'T', got %q", flag.Shorthand)
		}
	})

	t.Run("has report format flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"json", "markdown", "yaml", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has save and db-dir flags", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("save") == nil {
			t.Error("expected save flag")
		}
		if cmd.Flags().Lookup("db-dir") == nil {
			t.Error("expected db-dir flag")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewHuntCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		huntCmd, _, err := root.Find([]string{"hunt"})
		if err != nil {
			t.Fatalf("failed to find hunt command: %v", err)
		}

		result := getVerboseFlag(huntCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildHuntConfig tests configuration building from flags.
func TestBuildHuntConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewHuntCmd()
		cfg, err := buildHuntConfig(cmd, []string{"alice", "s3cret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if cfg.Server != config.DefaultServer {
			t.Errorf("expected server %q, got %q", config.DefaultServer, cfg.Server)
		}
		if cfg.Port != config.DefaultPort {
			t.Errorf("expected port %d, got %d", config.DefaultPort, cfg.Port)
		}
		if len(cfg.Credentials) != 1 {
			t.Fatalf("expected 1 credential, got %d", len(cfg.Credentials))
		}
		if cfg.Credentials[0].Username != "alice" || cfg.Credentials[0].Password != "s3cret" {
			t.Errorf("unexpected credential: %+v", cfg.Credentials[0])
		}
		if cfg.Workers != config.DefaultWorkers {
			t.Errorf("expected workers %d, got %d", config.DefaultWorkers, cfg.Workers)
		}
		if cfg.VerifyTLS {
			t.Error("expected VerifyTLS to be false by default")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to default to the XDG data directory")
		}
	})

	t.Run("builds config with custom server and port", func(t *testing.T) {
		cmd := NewHuntCmd()
		_ = cmd.Flags().Set("server", "localhost")
		_ = cmd.Flags().Set("port", "8443")
		cfg, err := buildHuntConfig(cmd, []string{"alice", "s3cret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Server != "localhost" {
			t.Errorf("expected server 'localhost', got %q", cfg.Server)
		}
		if cfg.Port != 8443 {
			t.Errorf("expected port 8443, got %d", cfg.Port)
		}
	})

	t.Run("builds config with custom workers and quota", func(t *testing.T) {
		cmd := NewHuntCmd()
		_ = cmd.Flags().Set("workers", "10")
		_ = cmd.Flags().Set("quota", "3")
		cfg, err := buildHuntConfig(cmd, []string{"alice", "s3cret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Workers != 10 {
			t.Errorf("expected workers 10, got %d", cfg.Workers)
		}
		if cfg.FlagQuota != 3 {
			t.Errorf("expected quota 3, got %d", cfg.FlagQuota)
		}
	})

	t.Run("builds config from credential list file", func(t *testing.T) {
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "creds.txt")
		content := "alice:s3cret\nbob:hunter2\n"
		if err := os.WriteFile(listPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		cmd := NewHuntCmd()
		_ = cmd.Flags().Set("list", listPath)
		cfg, err := buildHuntConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Credentials) != 2 {
			t.Fatalf("expected 2 credentials, got %d", len(cfg.Credentials))
		}
		if cfg.Credentials[1].Username != "bob" || cfg.Credentials[1].Password != "hunter2" {
			t.Errorf("unexpected second credential: %+v", cfg.Credentials[1])
		}
	})

	t.Run("rejects positional credentials combined with list", func(t *testing.T) {
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "creds.txt")
		if err := os.WriteFile(listPath, []byte("alice:s3cret\n"), 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		cmd := NewHuntCmd()
		_ = cmd.Flags().Set("list", listPath)
		_, err := buildHuntConfig(cmd, []string{"alice", "s3cret"})
		if err == nil {
			t.Error("expected error when both positional credentials and --list are given")
		}
	})

	t.Run("returns error when no credentials given", func(t *testing.T) {
		cmd := NewHuntCmd()
		_, err := buildHuntConfig(cmd, nil)
		if err == nil {
			t.Error("expected error for missing credentials")
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewHuntCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildHuntConfig(cmd, []string{"alice", "s3cret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewHuntCmd()
		_ = cmd.Flags().Set("output", "/tmp/flags.txt")
		cfg, err := buildHuntConfig(cmd, []string{"alice", "s3cret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/flags.txt" {
			t.Errorf("expected ReportFile '/tmp/flags.txt', got %q", cfg.ReportFile)
		}
	})
}

// TestLoadCredentialList tests credential list file parsing.
func TestLoadCredentialList(t *testing.T) {
	t.Parallel()

	t.Run("parses valid list with comments and blank lines", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "creds.txt")
		content := "# course accounts\nalice:s3cret\n\nbob:hunter2\n  carol:pass:with:colons  \n"
		if err := os.WriteFile(listPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		creds, err := loadCredentialList(listPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(creds) != 3 {
			t.Fatalf("expected 3 credentials, got %d", len(creds))
		}
		// Only the first colon splits: passwords may contain colons.
		if creds[2].Username != "carol" || creds[2].Password != "pass:with:colons" {
			t.Errorf("unexpected third credential: %+v", creds[2])
		}
	})

	t.Run("returns error for malformed line", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "creds.txt")
		if err := os.WriteFile(listPath, []byte("alice:s3cret\nno-colon-here\n"), 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		_, err := loadCredentialList(listPath)
		if err == nil {
			t.Error("expected error for malformed line")
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("expected error to name line 2, got: %v", err)
		}
	})

	t.Run("returns error for empty file", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "creds.txt")
		if err := os.WriteFile(listPath, []byte("# nothing here\n\n"), 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		_, err := loadCredentialList(listPath)
		if err == nil {
			t.Error("expected error for empty credential list")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		t.Parallel()
		_, err := loadCredentialList(filepath.Join(t.TempDir(), "nope.txt"))
		if err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestOutputReport tests the report output functionality.
func TestOutputReport(t *testing.T) {
	t.Run("writes plain flags to file one per line", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "flags.txt")

		cfg := &config.Config{ReportFile: outputPath}

		rep := model.NewCrawlReport("example.test", 443, "alice")
		rep.Flags = []string{"flag-one", "flag-two"}
		rep.Finish(model.TerminationQuota)

		if err := outputReport(cfg, rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		want := "flag-one\nflag-two\n"
		if string(content) != want {
			t.Errorf("expected %q, got %q", want, string(content))
		}
	})

	t.Run("writes JSON report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.json")

		cfg := &config.Config{JSONReport: true, ReportFile: outputPath}

		rep := model.NewCrawlReport("example.test", 443, "alice")
		rep.Flags = []string{"flag-one"}
		rep.Finish(model.TerminationQuota)

		if err := outputReport(cfg, rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		var result map[string]interface{}
		if err := json.Unmarshal(content, &result); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "subdir", "nested", "flags.txt")

		cfg := &config.Config{ReportFile: outputPath}

		rep := model.NewCrawlReport("example.test", 443, "alice")
		rep.Finish(model.TerminationExhausted)

		if err := outputReport(cfg, rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			t.Error("expected output file to be created in nested directory")
		}
	})

	t.Run("writes to stdout when no file specified", func(t *testing.T) {
		cfg := &config.Config{}

		rep := model.NewCrawlReport("example.test", 443, "alice")
		rep.Flags = []string{"flag-one"}
		rep.Finish(model.TerminationQuota)

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := outputReport(cfg, rep)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if buf.String() != "flag-one\n" {
			t.Errorf("expected 'flag-one\\n' on stdout, got %q", buf.String())
		}
	})

	t.Run("writes YAML report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.yaml")

		cfg := &config.Config{YAMLReport: true, ReportFile: outputPath}

		rep := model.NewCrawlReport("example.test", 443, "alice")
		rep.Finish(model.TerminationQuota)

		if err := outputReport(cfg, rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if !bytes.Contains(content, []byte("example.test")) {
			t.Error("expected YAML report to contain the server name")
		}
	})
}

// TestSaveReport tests the saveReport function.
func TestSaveReport(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	t.Run("returns nil when db is nil", func(t *testing.T) {
		t.Parallel()

		rep := model.NewCrawlReport("example.test", 443, "alice")
		if err := saveReport(ctx, nil, rep, logger); err != nil {
			t.Errorf("expected nil error when db is nil, got %v", err)
		}
	})

	t.Run("saves report to database", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		db, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		rep := model.NewCrawlReport("save.test", 443, "alice")
		rep.Flags = []string{"flag-one", "flag-two"}
		rep.Finish(model.TerminationQuota)

		if err := saveReport(ctx, db, rep, logger); err != nil {
			t.Fatalf("saveReport() error = %v", err)
		}

		saved, err := db.LatestRun(ctx, "save.test")
		if err != nil {
			t.Fatalf("failed to get saved run: %v", err)
		}
		if saved == nil {
			t.Fatal("expected run to be saved")
		}
		if saved.Username != "alice" {
			t.Errorf("expected username 'alice', got %q", saved.Username)
		}
		if len(saved.Flags) != 2 {
			t.Errorf("expected 2 flags, got %d", len(saved.Flags))
		}
	})
}

// TestRunHuntCmdValidation tests flag validation through the root command.
func TestRunHuntCmdValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing credentials", func(t *testing.T) {
		t.Parallel()
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"hunt"})

		if err := rootCmd.Execute(); err == nil {
			t.Error("expected error for missing credentials")
		}
	})

	t.Run("rejects conflicting report formats", func(t *testing.T) {
		t.Parallel()
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"hunt", "alice", "s3cret", "--json", "--markdown"})

		err := rootCmd.Execute()
		if err == nil {
			t.Error("expected error for conflicting report formats")
		}
		if !strings.Contains(err.Error(), "conflicting report formats") {
			t.Errorf("expected 'conflicting report formats' error, got: %v", err)
		}
	})

	t.Run("rejects conflicting proxy options", func(t *testing.T) {
		t.Parallel()
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"hunt", "alice", "s3cret", "--tor", "--proxy", "127.0.0.1:9050"})

		err := rootCmd.Execute()
		if err == nil {
			t.Error("expected error for conflicting proxy options")
		}
		if !strings.Contains(err.Error(), "conflicting proxy options") {
			t.Errorf("expected 'conflicting proxy options' error, got: %v", err)
		}
	})

	t.Run("rejects invalid worker count", func(t *testing.T) {
		t.Parallel()
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"hunt", "alice", "s3cret", "--workers", "0"})

		if err := rootCmd.Execute(); err == nil {
			t.Error("expected error for zero workers")
		}
	})
}
