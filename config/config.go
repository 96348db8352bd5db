// Package config loads memo settings from defaults, an optional YAML file
// and MEMO_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"memo/audio"
	"memo/hotkey"
	"memo/permission"
)

const envPrefix = "MEMO"

type Config struct {
	Audio      AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Storage    StorageConfig `mapstructure:"storage" yaml:"storage"`
	Timer      TimerConfig   `mapstructure:"timer" yaml:"timer"`
	Meter      MeterConfig   `mapstructure:"meter" yaml:"meter"`
	Hotkey     HotkeyConfig  `mapstructure:"hotkey" yaml:"hotkey"`
	Permission string        `mapstructure:"permission" yaml:"permission"`
	Beep       bool          `mapstructure:"beep" yaml:"beep"`
	LogPath    string        `mapstructure:"log_path" yaml:"log_path,omitempty"`
}

type AudioConfig struct {
	Device     string `mapstructure:"device" yaml:"device,omitempty"` // name or ID; empty picks the system default
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"`
	BlockSize  int    `mapstructure:"block_size" yaml:"block_size"`
}

type StorageConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	FileName  string `mapstructure:"file_name" yaml:"file_name"`
}

type TimerConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type MeterConfig struct {
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	Gain      float64       `mapstructure:"gain" yaml:"gain"`
	IdleScale float64       `mapstructure:"idle_scale" yaml:"idle_scale"`
}

// HotkeyConfig binds global key combinations to record and play. An
// empty combination leaves that command on the TUI keys only.
type HotkeyConfig struct {
	Record string `mapstructure:"record" yaml:"record"`
	Play   string `mapstructure:"play" yaml:"play"`
}

// DefaultPath is read when no config file is given and it exists.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "memo.yaml")
}

func defaultDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "memo"
	}
	return filepath.Join(home, "Documents", "memo")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.device", "")
	v.SetDefault("audio.sample_rate", audio.DefaultSampleRate)
	v.SetDefault("audio.channels", audio.DefaultChannels)
	v.SetDefault("audio.block_size", audio.TapBlockSize)
	v.SetDefault("storage.directory", defaultDirectory())
	v.SetDefault("storage.file_name", "recording.wav")
	v.SetDefault("timer.interval", time.Second)
	v.SetDefault("meter.interval", 16*time.Millisecond)
	v.SetDefault("meter.gain", 3.0)
	v.SetDefault("meter.idle_scale", 0.4)
	v.SetDefault("hotkey.record", "ctrl+shift+r")
	v.SetDefault("hotkey.play", "ctrl+shift+p")
	v.SetDefault("permission", permission.Granted.String())
	v.SetDefault("beep", true)
	v.SetDefault("log_path", "")
}

// Default returns the built-in settings without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// Load reads configFile, or DefaultPath when configFile is empty. An
// explicitly named file must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := expandPath(configFile)
	if path == "" {
		if def := DefaultPath(); def != "" {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Storage.Directory = expandPath(cfg.Storage.Directory)
	cfg.LogPath = expandPath(cfg.LogPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		errs = append(errs, fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels))
	}
	if c.Audio.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.block_size must be positive, got %d", c.Audio.BlockSize))
	}
	if c.Storage.Directory == "" {
		errs = append(errs, errors.New("storage.directory is empty"))
	}
	if c.Storage.FileName == "" || strings.ContainsRune(c.Storage.FileName, filepath.Separator) {
		errs = append(errs, fmt.Errorf("storage.file_name must be a plain file name, got %q", c.Storage.FileName))
	}
	if c.Timer.Interval <= 0 {
		errs = append(errs, errors.New("timer.interval must be positive"))
	}
	if c.Meter.Interval <= 0 {
		errs = append(errs, errors.New("meter.interval must be positive"))
	}
	if c.Meter.Gain <= 0 {
		errs = append(errs, errors.New("meter.gain must be positive"))
	}
	if c.Meter.IdleScale < 0 {
		errs = append(errs, errors.New("meter.idle_scale must not be negative"))
	}
	for name, spec := range map[string]string{"hotkey.record": c.Hotkey.Record, "hotkey.play": c.Hotkey.Play} {
		if spec == "" {
			continue
		}
		if _, err := hotkey.Parse(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Hotkey.Record != "" && strings.EqualFold(c.Hotkey.Record, c.Hotkey.Play) {
		errs = append(errs, errors.New("hotkey.record and hotkey.play are the same combination"))
	}
	if _, err := permission.Parse(c.Permission); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Format is the capture format the settings ask for.
func (c *Config) Format() audio.Format {
	return audio.Format{SampleRate: uint32(c.Audio.SampleRate), Channels: uint32(c.Audio.Channels)}
}

// RecordingPath is the one file every take is written to.
func (c *Config) RecordingPath() string {
	return filepath.Join(c.Storage.Directory, c.Storage.FileName)
}

func (c *Config) PermissionStatus() permission.Status {
	s, _ := permission.Parse(c.Permission)
	return s
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
