package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"memo/audio"
	"memo/permission"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "MEMO_") {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
			os.Unsetenv(strings.SplitN(kv, "=", 2)[0])
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memo.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format() != (audio.Format{SampleRate: 44100, Channels: 1}) {
		t.Errorf("format = %+v", cfg.Format())
	}
	if cfg.Audio.BlockSize != 4096 {
		t.Errorf("block size = %d", cfg.Audio.BlockSize)
	}
	if cfg.Timer.Interval != time.Second || cfg.Meter.Interval != 16*time.Millisecond {
		t.Errorf("intervals = %v, %v", cfg.Timer.Interval, cfg.Meter.Interval)
	}
	if cfg.Meter.Gain != 3 || cfg.Meter.IdleScale != 0.4 {
		t.Errorf("meter = %+v", cfg.Meter)
	}
	if filepath.Base(cfg.RecordingPath()) != "recording.wav" {
		t.Errorf("recording path = %q", cfg.RecordingPath())
	}
	if cfg.PermissionStatus() != permission.Granted || !cfg.Beep {
		t.Errorf("permission=%v beep=%v", cfg.PermissionStatus(), cfg.Beep)
	}
	if cfg.Hotkey.Record != "ctrl+shift+r" || cfg.Hotkey.Play != "ctrl+shift+p" {
		t.Errorf("hotkeys = %+v", cfg.Hotkey)
	}
}

func TestLoadHotkeyDisabled(t *testing.T) {
	isolate(t)
	path := writeFile(t, "hotkey:\n  record: \"\"\n  play: alt+f9\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey.Record != "" || cfg.Hotkey.Play != "alt+f9" {
		t.Errorf("hotkeys = %+v", cfg.Hotkey)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, `
audio:
  sample_rate: 48000
  channels: 2
storage:
  directory: /tmp/memo-test
timer:
  interval: 500ms
permission: undetermined
beep: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 2 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.BlockSize != 4096 {
		t.Errorf("unset key lost its default: block_size = %d", cfg.Audio.BlockSize)
	}
	if cfg.RecordingPath() != "/tmp/memo-test/recording.wav" {
		t.Errorf("recording path = %q", cfg.RecordingPath())
	}
	if cfg.Timer.Interval != 500*time.Millisecond {
		t.Errorf("timer interval = %v", cfg.Timer.Interval)
	}
	if cfg.PermissionStatus() != permission.Undetermined || cfg.Beep {
		t.Errorf("permission=%v beep=%v", cfg.PermissionStatus(), cfg.Beep)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "audio:\n  sample_rate: 48000\n")
	t.Setenv("MEMO_AUDIO_SAMPLE_RATE", "16000")
	t.Setenv("MEMO_STORAGE_FILE_NAME", "take.wav")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Storage.FileName != "take.wav" {
		t.Errorf("file name = %q", cfg.Storage.FileName)
	}
}

func TestLoadDefaultPathIsOptional(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")
	if _, err := Load(""); err != nil {
		t.Fatalf("Load without default file: %v", err)
	}

	os.MkdirAll(filepath.Join(home, ".config"), 0755)
	os.WriteFile(filepath.Join(home, ".config", "memo.yaml"), []byte("meter:\n  gain: 5\n"), 0644)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with default file: %v", err)
	}
	if cfg.Meter.Gain != 5 {
		t.Errorf("gain = %v, want 5", cfg.Meter.Gain)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "audio.sample_rate"},
		{"channels", func(c *Config) { c.Audio.Channels = 6 }, "audio.channels"},
		{"block size", func(c *Config) { c.Audio.BlockSize = -1 }, "audio.block_size"},
		{"file name", func(c *Config) { c.Storage.FileName = "a/b.wav" }, "storage.file_name"},
		{"timer", func(c *Config) { c.Timer.Interval = 0 }, "timer.interval"},
		{"permission", func(c *Config) { c.Permission = "sometimes" }, "permission"},
		{"record hotkey", func(c *Config) { c.Hotkey.Record = "r" }, "hotkey.record"},
		{"play hotkey", func(c *Config) { c.Hotkey.Play = "ctrl+shift+nope" }, "hotkey.play"},
		{"same hotkeys", func(c *Config) { c.Hotkey.Play = "CTRL+SHIFT+R" }, "same combination"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate = %v, want mention of %q", err, tt.want)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Audio.SampleRate = 22050
	cfg.Meter.Interval = 33 * time.Millisecond
	path := filepath.Join(t.TempDir(), "nested", "memo.yaml")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "33ms") {
		t.Errorf("durations not written as strings:\n%s", data)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Audio.SampleRate != 22050 || got.Meter.Interval != 33*time.Millisecond {
		t.Errorf("loaded %+v", got)
	}
}
