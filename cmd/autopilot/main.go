// Command autopilot drives an RC drift car around a track, either from a
// tracking source (vision mode) or from operator commands on stdin (manual
// mode), and streams the resulting commands to the car.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/driftcars/autopilot/internal/api"
	"github.com/driftcars/autopilot/internal/command"
	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/internal/database"
	"github.com/driftcars/autopilot/internal/dispatcher"
	"github.com/driftcars/autopilot/internal/logging"
	"github.com/driftcars/autopilot/internal/monitor"
	"github.com/driftcars/autopilot/internal/navigation"
	"github.com/driftcars/autopilot/internal/operator"
	intOtel "github.com/driftcars/autopilot/internal/otel"
	"github.com/driftcars/autopilot/internal/pipeline"
	"github.com/driftcars/autopilot/internal/protocol"
	"github.com/driftcars/autopilot/internal/raycast"
	"github.com/driftcars/autopilot/internal/recorder"
	"github.com/driftcars/autopilot/internal/session"
	"github.com/driftcars/autopilot/internal/storage"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const appName = "autopilot"

// app holds the process-wide collaborators shared by the run and the
// maintenance commands.
type app struct {
	start time.Time

	slog    *logging.SlogManager
	logger  *slog.Logger
	zlog    zerolog.Logger
	otel    *intOtel.Provider
	closers []io.Closer

	session *session.Context
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	configDir := flags.String("config", ".", "directory containing "+config.FileName)
	flags.String("mode", "", "control mode: vision or manual")
	flags.String("transport", "", "transport: dryrun, serial or websocket")
	flags.String("source", "", "tracking source: simulator or replay")
	flags.String("track", "", "track image (png, jpeg or bmp)")
	flags.String("tag", "", "tag stored with the run")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [run|migratebackups <dir>|version]\n", appName)
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	bindFlags(flags)

	a := &app{start: time.Now(), session: session.NewContext()}
	configErr := config.Load(*configDir)
	if err := a.setupLogging(); err != nil {
		return err
	}
	defer a.shutdown()

	if configErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		a.logger.Info("Loaded config", "dir", *configDir)
	}

	args := flags.Args()
	cmd := "run"
	if len(args) > 0 {
		cmd = strings.ToLower(args[0])
	}

	switch cmd {
	case "run":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.runPipeline(ctx, stop)
	case "migratebackups":
		if len(args) < 2 {
			return errors.New("migratebackups needs a backup directory")
		}
		return a.migrateBackups(args[1])
	case "version":
		fmt.Printf("%s %s (built %s)\n", appName, Version, BuildDate)
		return nil
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// bindFlags maps the command line flags onto their config keys. Flags that
// were not given leave config file and default values alone.
func bindFlags(flags *pflag.FlagSet) {
	keys := map[string]string{
		"mode":      "control.mode",
		"transport": "transport.type",
		"source":    "source.type",
		"track":     "source.track",
		"tag":       "defaultTag",
		"log-level": "logLevel",
	}
	for name, key := range keys {
		f := flags.Lookup(name)
		if f != nil && f.Changed {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func (a *app) setupLogging() error {
	logsDir := viper.GetString("logsDir")
	level := viper.GetString("logLevel")

	logPath := logging.LogFilePath(logsDir, appName, a.start)
	file, err := logging.OpenLogFile(logPath)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, file)

	otelCfg := config.GetOTelConfig()
	var provider *sdklog.LoggerProvider
	var otelErr error
	if otelCfg.Enabled {
		a.otel, otelErr = intOtel.New(otelCfg, file, Version)
		if otelErr == nil {
			provider = a.otel.LoggerProvider()
		}
	}

	var extra []slog.Handler
	var gelfErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, closer, err := logging.NewGELFHandler(gl.Address, level)
		if err != nil {
			gelfErr = err
		} else {
			extra = append(extra, h)
			a.closers = append(a.closers, closer)
		}
	}

	mgr := logging.NewSlogManager()
	mgr.Context = a.session.LogAttrs
	mgr.Setup(io.MultiWriter(os.Stderr, file), level, provider, extra...)
	a.slog = mgr
	a.logger = mgr.Logger()
	a.zlog = logging.NewZerolog(file, level)

	a.logger.Info("Logging to file", "path", logPath, "version", Version, "build", BuildDate)
	if otelErr != nil {
		a.logger.Error("Failed to initialize OTel provider", "error", otelErr)
	} else if a.otel != nil {
		a.logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
	}
	if gelfErr != nil {
		a.logger.Error("Failed to initialize Graylog handler", "error", gelfErr)
	}
	return nil
}

func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.slog != nil {
		_ = a.slog.Flush(ctx)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func (a *app) runPipeline(ctx context.Context, stop context.CancelFunc) error {
	control := config.GetControlConfig()
	pipeCfg := config.GetPipelineConfig()
	navCfg := navigationConfig(config.GetNavigationConfig())
	protoCfg := config.GetProtocolConfig()
	storageCfg := config.GetStorageConfig()

	translator, err := command.ForMode(control.Mode, control.ManualCeiling, control.VisionCeiling)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(uint64(a.start.UnixNano()), 0x5eed))

	tr, err := a.createTransport(ctx, config.GetTransportConfig())
	if err != nil {
		return err
	}
	defer tr.Close()

	var src sourceHandle
	if control.Mode == command.ModeVision {
		src, err = a.createSource(config.GetSourceConfig(), navCfg, rng)
		if err != nil {
			return err
		}
		defer src.Close()
	}

	p, err := pipeline.New(pipeline.Config{
		Mode:            control.Mode,
		ChannelCapacity: pipeCfg.ChannelCapacity,
		ChannelTimeout:  pipeCfg.ChannelTimeout,
		SenderInterval:  pipeCfg.SenderInterval,
		StopOnExit:      pipeCfg.StopOnExit,
		Record:          storageCfg.Type != "none",
	}, pipeline.Dependencies{
		Source:     src.Source,
		Transport:  tr,
		Navigation: navCfg,
		Translator: translator,
		Protocol:   protocol.Options{Identifier: protoCfg.Identifier, Checksum: protoCfg.Checksum},
		Rand:       rng,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	backend, err := a.createStorageBackend(storageCfg)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	runInfo := a.session.Start(control.Mode, src.Name, config.GetTransportConfig().Type, viper.GetString("defaultTag"))
	if err := backend.StartRun(&runInfo); err != nil {
		a.logger.Error("Failed to start run in storage", "error", err)
	}
	a.logger.Info("Run started", "source", src.Name, "transport", runInfo.Transport, "tag", runInfo.Tag)

	rec := recorder.New(recorder.Dependencies{
		Backend:       backend,
		Ticks:         p.TickRecords(),
		Commands:      p.CommandRecords(),
		Logger:        a.logger,
		FlushInterval: storageCfg.FlushInterval,
		BatchSize:     storageCfg.BatchSize,
	})
	if storageCfg.Type != "none" {
		p.AddTask("recorder", rec.Run)
	}

	mon := monitor.NewService(monitor.Dependencies{
		Status:     p.Status,
		Run:        a.session.Current,
		Logger:     a.logger,
		StatusFile: viper.GetString("statusFile"),
	}, pipeCfg.MonitorInterval)
	p.AddTask("monitor", mon.Run)

	if control.Mode == command.ModeManual {
		d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog))
		if err != nil {
			return err
		}
		if err := operator.New(p.Commands(), translator.Ceiling).Register(d); err != nil {
			return err
		}
		p.AddTask("console", func(ctx context.Context) error {
			// end of input or a quit command ends the session
			defer stop()
			return d.Serve(ctx, os.Stdin, os.Stdout)
		})
		a.logger.Info("Manual control ready, reading commands from stdin")
	}

	runErr := p.Run(ctx)

	if err := rec.Flush(); err != nil {
		a.logger.Error("Failed to flush recorded data", "error", err)
	}
	ended, _ := a.session.End()
	if err := backend.EndRun(&ended); err != nil {
		a.logger.Error("Failed to end run in storage", "error", err)
	}
	a.logger.Info("Run ended",
		"duration", ended.EndTime.Sub(ended.StartTime).String(),
		"recorded", rec.Stats(),
		"status", p.Status(),
	)

	a.upload(backend)
	return runErr
}

func navigationConfig(cfg config.NavigationConfig) navigation.Config {
	nav := navigation.DefaultConfig()
	nav.Speed = cfg.BaseSpeed
	nav.MaxTurnAngle = cfg.MaxTurnAngle
	nav.DecisionThreshold = cfg.DecisionThreshold
	nav.EvasiveThreshold = cfg.Boundary.EvasiveThreshold
	nav.Rays = raycast.Params{
		MaxLength:      cfg.Boundary.RayMaxLength,
		SkipDistance:   cfg.Boundary.SkipDistance,
		BlackThreshold: cfg.Boundary.BlackThreshold,
	}
	return nav
}

// upload posts the exported run to the run viewer when the backend produced
// a file and a server is configured.
func (a *app) upload(backend storage.Backend) {
	up, ok := backend.(storage.Uploadable)
	if !ok {
		return
	}
	path := up.GetExportedFilePath()
	apiCfg := config.GetAPIConfig()
	if path == "" || apiCfg.ServerURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := client.Healthcheck(ctx); err != nil {
		a.logger.Warn("Run viewer is offline, export kept on disk", "path", path, "error", err)
		return
	}
	if err := client.Upload(ctx, path, up.GetExportMetadata()); err != nil {
		a.logger.Error("Failed to upload run export", "path", path, "error", err)
		return
	}
	a.logger.Info("Uploaded run export", "path", path)
}

func (a *app) migrateBackups(dir string) error {
	paths, err := database.GetBackupDBPaths(dir)
	if err != nil {
		return fmt.Errorf("error getting backup database paths: %w", err)
	}
	if len(paths) == 0 {
		a.logger.Info("No backups to migrate", "dir", dir)
		return nil
	}

	target, err := database.OpenPostgres(config.GetStorageConfig().Postgres)
	if err != nil {
		return fmt.Errorf("error getting postgres database: %w", err)
	}
	if err := database.Migrate(target); err != nil {
		return err
	}

	migrated, err := database.MigrateBackups(target, paths, a.zlog)
	a.logger.Info("Migrated backups, it's recommended to delete these to avoid future data duplication",
		"count", len(migrated), "paths", migrated)
	return err
}
