package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/example/claimhub/internal/core/claim"
	"github.com/example/claimhub/internal/wire"
)

var testHome string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "claimhub-cli")
	if err != nil {
		panic(err)
	}
	testHome = dir

	code := m.Run()

	wire.Shutdown(context.Background())
	os.RemoveAll(dir)
	os.Exit(code)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--home", testHome}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out)
	}
	return out
}

var taskIDPattern = regexp.MustCompile(`TASK-\d+`)

func TestInitAndDoctor(t *testing.T) {
	out := mustRun(t, "init")
	if !strings.Contains(out, "Database initialized") {
		t.Errorf("unexpected init output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(testHome, "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out = mustRun(t, "doctor")
	if !strings.Contains(out, "All checks passed.") {
		t.Errorf("unexpected doctor output:\n%s", out)
	}
}

func TestSignupFlow(t *testing.T) {
	mustRun(t, "reset", "--yes")

	out := mustRun(t, "task", "add", "Kitchen", "--capacity", "1")
	taskID := taskIDPattern.FindString(out)
	if taskID == "" {
		t.Fatalf("no task id in output:\n%s", out)
	}

	out = mustRun(t, "claim", taskID, "--name", "Ana", "--device", "d1")
	if !strings.Contains(out, "Ana is signed up for Kitchen") {
		t.Errorf("unexpected claim output:\n%s", out)
	}

	_, err := run(t, "claim", taskID, "--name", "Ben", "--device", "d2")
	if !errors.Is(err, claim.ErrTaskFull) {
		t.Fatalf("expected TaskFull, got %v", err)
	}

	out = mustRun(t, "board", "--device", "d1")
	if !strings.Contains(out, "You signed up for Kitchen") || !strings.Contains(out, "1 of 1 slots taken") {
		t.Errorf("unexpected board:\n%s", out)
	}

	out = mustRun(t, "assignment", "clear", taskID)
	if !strings.Contains(out, "Cleared 1 assignment(s)") {
		t.Errorf("unexpected clear output:\n%s", out)
	}

	mustRun(t, "claim", taskID, "--name", "Ben", "--device", "d2")
}

func TestClaim_SecondTaskSameDevice(t *testing.T) {
	mustRun(t, "reset", "--yes")
	mustRun(t, "settings", "set", "--dedup=true")

	first := taskIDPattern.FindString(mustRun(t, "task", "add", "Kitchen", "--capacity", "3"))
	second := taskIDPattern.FindString(mustRun(t, "task", "add", "Doors", "--capacity", "3"))

	mustRun(t, "claim", first, "--name", "Ana", "--device", "d1")

	_, err := run(t, "claim", second, "--name", "Ana", "--device", "d1")
	if !errors.Is(err, claim.ErrAlreadyAssigned) {
		t.Fatalf("expected AlreadyAssigned, got %v", err)
	}
	if !strings.Contains(err.Error(), "you already picked Kitchen") {
		t.Errorf("unexpected message: %v", err)
	}

	mustRun(t, "settings", "set", "--dedup=false")
	mustRun(t, "claim", second, "--name", "Ana", "--device", "d1")

	out := mustRun(t, "settings", "show")
	if !strings.Contains(out, "Device dedup:  off") {
		t.Errorf("unexpected settings output:\n%s", out)
	}
	mustRun(t, "settings", "set", "--dedup=true")
}

func TestTaskUpdateAndDelete(t *testing.T) {
	mustRun(t, "reset", "--yes")

	taskID := taskIDPattern.FindString(mustRun(t, "task", "add", "Kitchen", "--capacity", "2"))
	mustRun(t, "task", "update", taskID, "--capacity", "5", "--subtitle", "lunch")

	out := mustRun(t, "task", "show", taskID)
	if !strings.Contains(out, "0/5 taken") || !strings.Contains(out, "lunch") {
		t.Errorf("unexpected show output:\n%s", out)
	}

	mustRun(t, "task", "delete", taskID)
	out = mustRun(t, "task", "list")
	if !strings.Contains(out, "No tasks found") {
		t.Errorf("unexpected list output:\n%s", out)
	}
}

func TestReset_RequiresConfirmation(t *testing.T) {
	_, err := run(t, "reset")
	if !errors.Is(err, errResetNeedsConfirmation) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}
