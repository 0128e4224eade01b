package e2e

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

const TEST_WATCH_TIMEOUT = 30 * time.Second

var idPattern = regexp.MustCompile(`\(ID: ([0-9a-f-]+)\)`)

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Setup Environment
	// Allow overriding bin dir via env var, default to ../../bin (relative to tests/e2e)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get cwd: %v", err)
	}

	binDir := os.Getenv("CADENCE_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join(cwd, "..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	t.Logf("Using bin dir: %s", binDir)

	cliPath := filepath.Join(binDir, "cadence")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Build it with 'go build -o bin/cadence ./cmd/cadence' first.", cliPath)
	}

	// Create temp home for isolation
	tempDir := t.TempDir()
	t.Logf("Running test in temp dir: %s", tempDir)

	var cleanEnv []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HOME=") && !strings.HasPrefix(e, "CADENCE_") {
			cleanEnv = append(cleanEnv, e)
		}
	}
	cleanEnv = append(cleanEnv,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("CADENCE_CONFIG_DIR=%s", filepath.Join(tempDir, "cadence")),
		"CADENCE_LOG_LEVEL=debug",
	)

	// 2. Initialize CLI
	t.Log("Initializing CLI...")
	out := runCmd(t, cliPath, cleanEnv, "init")
	if !strings.Contains(out, "Initialized cadence storage") {
		t.Fatalf("unexpected init output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "cadence", "config.yaml")); err != nil {
		t.Errorf("init did not write the config file: %v", err)
	}

	// 3. Create a daily series and complete its first instance
	out = runCmd(t, cliPath, cleanEnv, "task", "add", "Water plants", "--repeat", "daily", "--priority", "2")
	m := idPattern.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no task id in output: %s", out)
	}
	firstID := m[1]

	out = runCmd(t, cliPath, cleanEnv, "complete", firstID[:8])
	if !strings.Contains(out, "Next occurrence:") {
		t.Fatalf("completing a series instance should spawn the next one: %s", out)
	}

	out = runCmd(t, cliPath, cleanEnv, "task", "list")
	if strings.Count(out, "Water plants") != 1 {
		t.Errorf("expected exactly one pending instance:\n%s", out)
	}

	// 4. Stats reflect the completion
	statsCmd := exec.Command(cliPath, "stats", "--json")
	statsCmd.Env = cleanEnv
	raw, err := statsCmd.Output()
	if err != nil {
		t.Fatalf("stats --json failed: %v", err)
	}
	var report struct {
		Summary struct {
			Completed int `json:"completed"`
			Pending   int `json:"pending"`
		} `json:"summary"`
		Series []json.RawMessage `json:"series"`
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("stats output is not JSON: %v\n%s", err, raw)
	}
	if report.Summary.Completed != 1 || report.Summary.Pending != 1 || len(report.Series) != 1 {
		t.Errorf("unexpected stats: %s", raw)
	}

	// 5. Undo removes the spawned instance
	out = runCmd(t, cliPath, cleanEnv, "undo", firstID)
	if !strings.Contains(out, "Removed:") {
		t.Errorf("undo should remove the spawned instance: %s", out)
	}
	out = runCmd(t, cliPath, cleanEnv, "sweep", "--dry-run")
	if !strings.Contains(out, "All series are up to date.") {
		t.Errorf("nothing should need regenerating after undo: %s", out)
	}

	// 6. Export to JSON and read it back through --db
	exportPath := filepath.Join(tempDir, "export.json")
	runCmd(t, cliPath, cleanEnv, "export", exportPath)
	out = runCmd(t, cliPath, cleanEnv, "--db", exportPath, "task", "show", firstID)
	if !strings.Contains(out, "Water plants") {
		t.Errorf("exported store is missing the task: %s", out)
	}

	// 7. Watch starts and stops cleanly on interrupt
	watchCmd := exec.Command(cliPath, "watch", "--schedule", "@every 1s")
	watchCmd.Env = cleanEnv
	stdout, err := watchCmd.StdoutPipe()
	if err != nil {
		t.Fatalf("Failed to get stdout pipe: %v", err)
	}
	if err := watchCmd.Start(); err != nil {
		t.Fatalf("Failed to start watch: %v", err)
	}

	ready := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if strings.HasPrefix(scanner.Text(), "Watching ") {
				close(ready)
				break
			}
		}
		// Drain so the process never blocks on a full pipe.
		for scanner.Scan() {
		}
	}()

	select {
	case <-ready:
	case <-time.After(TEST_WATCH_TIMEOUT):
		_ = watchCmd.Process.Kill()
		t.Fatal("Timed out waiting for watch to start")
	}

	if err := watchCmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatalf("Failed to interrupt watch: %v", err)
	}
	if err := watchCmd.Wait(); err != nil {
		t.Errorf("watch exited with error: %v", err)
	}
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}
