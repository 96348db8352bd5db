package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("MEMO_LOG_PATH", "/tmp/memo-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/memo-env-log" {
		t.Errorf("got %q, want /tmp/memo-env-log", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv("MEMO_LOG_PATH", "/tmp/memo-env-log")
	got, err := ResolveDir("/tmp/flag")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/flag" {
		t.Errorf("got %q, want /tmp/flag", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("MEMO_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "memo") {
		t.Errorf("default dir %q does not mention memo", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{diagFileName, memoFileName} {
		path := filepath.Join(tmp, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestMaterializedWritesRecordingLine(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Materialized("/tmp/recording.wav", MaterializeMetrics{Take: 2, AudioS: 1.5})

	data, err := os.ReadFile(filepath.Join(tmp, memoFileName))
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, "/tmp/recording.wav") || !strings.Contains(line, "take 2") {
		t.Errorf("recordings log missing fields, got: %q", line)
	}
	// format: "2006-01-02 15:04:05\t[pid]\ttake N\tD.DDs\tpath\n"
	if strings.Count(line, "\t") != 4 {
		t.Errorf("expected tab-separated format, got: %q", line)
	}

	diag, _ := os.ReadFile(filepath.Join(tmp, diagFileName))
	if !strings.Contains(string(diag), "materialized") {
		t.Errorf("diagnostics log missing materialized event: %q", diag)
	}
}

func TestAlertLogged(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Alert("create_failed", "Couldn't create audio file", errors.New("disk full"))

	diag, _ := os.ReadFile(filepath.Join(tmp, diagFileName))
	for _, want := range []string{"alert", "create_failed", "disk full"} {
		if !strings.Contains(string(diag), want) {
			t.Errorf("diagnostics log missing %q: %q", want, diag)
		}
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	Close()
	Info("dropped")
	Materialized("x", MaterializeMetrics{})
	Alert("k", "m", nil)
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}

func TestDefaultDir(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}
	tests := []struct {
		goos string
		vars map[string]string
		want string
	}{
		{"darwin", nil, filepath.Join("/home/u", "Library", "Logs", "memo")},
		{"linux", nil, filepath.Join("/home/u", ".local", "state", "memo", "logs")},
		{"linux", map[string]string{"XDG_STATE_HOME": "/xdg"}, filepath.Join("/xdg", "memo", "logs")},
		{"windows", nil, filepath.Join("/home/u", "AppData", "Local", "memo", "logs")},
		{"windows", map[string]string{"LOCALAPPDATA": "/lad"}, filepath.Join("/lad", "memo", "logs")},
	}
	for _, tt := range tests {
		if got := defaultDir(tt.goos, "/home/u", env(tt.vars)); got != tt.want {
			t.Errorf("%s %v: got %q, want %q", tt.goos, tt.vars, got, tt.want)
		}
	}
}
