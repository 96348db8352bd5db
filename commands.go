package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"memo/audio"
	"memo/beep"
	"memo/capture"
	"memo/config"
	"memo/doctor"
	"memo/encoder"
	"memo/hotkey"
	"memo/log"
	"memo/permission"
	"memo/playback"
	"memo/session"
	"memo/shutdown"
)

var (
	cfg        *config.Config
	cfgFile    string
	logPathArg string
	deviceArg  string
	setupArg   bool
)

var rootCmd = &cobra.Command{
	Use:   "memo",
	Short: "Record a voice memo and play it back",
	Long: `memo records one take from the microphone into memory and plays it
back from a WAV file. r starts and stops a take, p plays the last one.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// config init must work before any config exists
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if deviceArg != "" {
			cfg.Audio.Device = deviceArg
		}
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
	RunE: runInteractive,
}

var testCmd = &cobra.Command{
	Use:   "test <wav-file>",
	Short: "Run headless, reading commands from stdin and audio from a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTestMode(cmd.Context(), args[0], os.Stdin, os.Stdout)
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := audio.NewContext()
		if err != nil {
			return fmt.Errorf("initializing audio: %w", err)
		}
		defer ctx.Close()
		devices, err := ctx.Devices()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range devices {
			marker := " "
			if d.Name == cfg.Audio.Device || d.ID == cfg.Audio.Device {
				marker = "*"
			}
			bt := ""
			if audio.IsBluetooth(d.Name) {
				bt = "  (bluetooth, lower quality)"
			}
			fmt.Fprintf(out, "%s %s%s\n", marker, d.Name, bt)
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the storage directory, microphone and playback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer shutdown.OnSignal(cmd.Context(), func() {
			fmt.Fprintln(os.Stderr, "\nInterrupted")
			os.Exit(1)
		})()

		actx, err := audio.NewContext()
		if err != nil {
			return fmt.Errorf("initializing audio: %w", err)
		}
		defer actx.Close()
		selected, err := resolveDevice(actx)
		if err != nil {
			return err
		}
		code := doctor.Run(doctor.Options{
			Context:   actx,
			Device:    selected,
			Format:    cfg.Format(),
			Directory: cfg.Storage.Directory,
			Hotkeys:   hotkey.Diagnose,
			Out:       cmd.OutOrStdout(),
		})
		if code != 0 {
			return errors.New("some checks failed")
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if path == "" {
			return errors.New("no config path: pass --config")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "memo %s\n", version)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/memo.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPathArg, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	rootCmd.PersistentFlags().StringVar(&deviceArg, "device", "", "use named microphone device")
	rootCmd.PersistentFlags().BoolVar(&setupArg, "setup", false, "select microphone device interactively")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging() error {
	flagPath := logPathArg
	if flagPath == "" {
		flagPath = cfg.LogPath
	}
	dir, err := log.ResolveDir(flagPath)
	if err != nil {
		return fmt.Errorf("failed to resolve log directory: %w", err)
	}
	log.SetDir(dir)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
		return nil
	}
	initCrashLog()
	return nil
}

// components are the parts one session owns besides the machine.
type components struct {
	machine  *session.Machine
	capture  *capture.Controller
	files    *encoder.Materializer
	playback *playback.Controller
}

func newSession(ctx audio.Context, dev audio.CaptureDevice, format audio.Format, perm permission.Provider, shell session.Shell) *components {
	buf := audio.NewFrameBuffer()
	c := &components{
		capture:  capture.New(dev, format, cfg.Audio.BlockSize, buf),
		files:    encoder.NewMaterializer(cfg.RecordingPath(), format),
		playback: playback.New(ctx),
	}
	c.machine = session.New(session.Config{
		Capture:       c.capture,
		Playback:      c.playback,
		Buffer:        buf,
		Files:         c.files,
		Permission:    perm,
		Shell:         shell,
		TimerInterval: cfg.Timer.Interval,
		MeterInterval: cfg.Meter.Interval,
		MeterGain:     cfg.Meter.Gain,
		IdleScale:     cfg.Meter.IdleScale,
	})
	return c
}

func resolveDevice(ctx audio.Context) (*audio.DeviceInfo, error) {
	if cfg.Audio.Device != "" {
		return audio.FindDevice(ctx, cfg.Audio.Device)
	}
	if !setupArg {
		return nil, nil
	}
	dev, err := audio.SelectDevice(ctx)
	if errors.Is(err, audio.ErrSelectionCancelled) {
		return nil, err
	}
	if err != nil {
		log.Warnf("device selection failed: %v", err)
		fmt.Printf("Warning: device selection failed: %v\n", err)
		fmt.Println("Falling back to default device")
		return nil, nil
	}
	return dev, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		return fmt.Errorf("initializing audio context: %w", err)
	}
	defer actx.Close()

	selected, err := resolveDevice(actx)
	if err != nil {
		return err
	}
	format := cfg.Format()
	dev, err := actx.NewCapture(selected, format)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		return fmt.Errorf("initializing capture device: %w", err)
	}
	defer dev.Close()

	if cfg.Beep {
		beep.Init(actx)
	} else {
		beep.Disable()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ui := newTUI(ctx, dev.DeviceName())
	sess := newSession(actx, dev, format, permission.NewStatic(cfg.PermissionStatus()), ui)
	ui.bind(sess.machine)
	line, stopHotkeys := startHotkeys(ctx, machineBindings(cfg.Hotkey, sess.machine), hotkey.New)
	defer stopHotkeys()
	ui.showHotkeys(line)
	log.SessionStart(dev.DeviceName(), format.SampleRate, format.Channels, cfg.RecordingPath())

	defer shutdown.OnSignal(ctx, ui.program.Quit)()

	runDone := make(chan error, 1)
	go func() { runDone <- sess.machine.Run(ctx) }()

	_, err = ui.program.Run()
	cancel()
	<-runDone
	if err != nil {
		log.Errorf("TUI error: %v", err)
	}
	return err
}
