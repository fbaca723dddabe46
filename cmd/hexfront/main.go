package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/hexfront/engine/internal/config"
	"github.com/hexfront/engine/internal/engine"
	"github.com/hexfront/engine/internal/logging"
	intOtel "github.com/hexfront/engine/internal/otel"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "hexfront"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// LogFile receives the text log of this process
	LogFile *os.File

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	// activeEngine feeds the game clock into every log record once a game runs
	activeEngine atomic.Pointer[engine.Engine]
)

const usage = `usage: hexfront <command>

commands:
  relay     run the session relay
  peer      connect to the relay and play
  version   print the version`

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(2)
	}

	command := strings.ToLower(args[0])
	if command == "version" {
		fmt.Printf("%s %s (%s)\n", AppName, CurrentVersion, BuildDate)
		return
	}
	if command != "relay" && command != "peer" {
		fmt.Println(usage)
		os.Exit(2)
	}

	configDir := "."
	if len(args) > 1 {
		configDir = args[1]
	}
	configErr := config.Load(configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupLogging(ctx, command)
	defer shutdownLogging()

	if configErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	var err error
	switch command {
	case "relay":
		err = runRelay(ctx)
	case "peer":
		err = runPeer(ctx)
	}
	if err != nil && ctx.Err() == nil {
		Logger.Error("Exited with error", "command", command, "error", err)
		shutdownLogging()
		os.Exit(1)
	}
}

// setupLogging opens the session log file, starts OTel when enabled and installs the logger.
func setupLogging(ctx context.Context, role string) {
	SlogManager = logging.NewSlogManager().WithContext(func() []slog.Attr {
		if e := activeEngine.Load(); e != nil {
			return e.LogAttrs()
		}
		return nil
	})
	SlogManager.Setup(nil, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
		return
	}

	logFilePath := logging.LogFilePath(logsDir, AppName+"-"+role, SessionStartTime)
	// keep the previous file of the same second instead of appending to it
	if _, err := os.Stat(logFilePath); err == nil {
		_ = os.Rename(logFilePath, logFilePath+".old")
	}

	var err error
	LogFile, err = os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
		LogFile = nil
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(ctx, intOtel.FromConfig(otelCfg, role, LogFile))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else if otelCfg.Endpoint != "" {
			Logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
		} else {
			Logger.Info("OTel provider initialized", "file", logFilePath)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	if LogFile != nil {
		SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider)
	} else {
		SlogManager.Setup(nil, viper.GetString("logLevel"), otelLogProvider)
	}
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	Logger.Info("Logging to file", "path", logFilePath, "version", CurrentVersion)
}

// componentZerolog returns a zerolog logger writing next to the slog output
func componentZerolog(component string) zerolog.Logger {
	if LogFile == nil {
		return logging.NewZerolog(os.Stderr, viper.GetString("logLevel"), component)
	}
	return logging.NewZerolog(LogFile, viper.GetString("logLevel"), component)
}

func shutdownLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "flush logs: %v\n", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown otel: %v\n", err)
		}
		OTelProvider = nil
	}
	if LogFile != nil {
		_ = LogFile.Close()
		LogFile = nil
	}
}

// dataPath places a per-session file next to the logs
func dataPath(name, ext string) string {
	return filepath.Join(
		viper.GetString("logsDir"),
		fmt.Sprintf("%s.%s.%s", name, SessionStartTime.Format("20060102_150405"), ext),
	)
}
