package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/loomstack/loomws/api"
	"github.com/loomstack/loomws/server"
)

var (
	listenPort     int
	staticRoot     string
	configPath     string
	logLevel       string
	lameTimeoutSec int
	ssoHeader      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the event loop and block until terminated",
	Example: `  # Serve on the default port with an echo demo handler at /echo
  loomwsd serve

  # Serve static files alongside the demo handler
  loomwsd serve --port 8080 --static-root ./public

  # Load configuration from YAML, overriding the port
  loomwsd serve --config ./loomws.yaml --port 9100`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&listenPort, "port", 9000, "TCP port to listen on")
	serveCmd.Flags().StringVar(&staticRoot, "static-root", "", "directory to serve static files from (empty disables static serving)")
	serveCmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file; flags override its values")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().IntVar(&lameTimeoutSec, "lame-timeout", 0, "lame-connection timeout in seconds (0 keeps the config/default value)")
	serveCmd.Flags().StringVar(&ssoHeader, "sso-header", "", "trusted header carrying the authenticated username (empty disables SSO)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger(logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	cfg := server.DefaultConfig()
	if configPath != "" {
		cfg, err = server.LoadConfigYAML(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = listenPort
	}
	if cmd.Flags().Changed("static-root") {
		cfg.StaticRoot = staticRoot
	}
	if lameTimeoutSec > 0 {
		cfg.LameConnectionTimeout = time.Duration(lameTimeoutSec) * time.Second
	}

	srv := server.New(server.WithLogger(logger), server.WithConfig(cfg))
	srv.AddWebSocketHandler("/echo", &echoHandler{logger: logger}, true)
	if ssoHeader != "" {
		srv.EnableSingleSignOn(api.SSOOptions{HeaderName: ssoHeader})
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutdown signal received")
		srv.Terminate()
	}()

	logger.Info("starting server", zap.Int("port", cfg.Port), zap.String("static_root", cfg.StaticRoot))
	err = srv.Serve(cfg.StaticRoot, cfg.Port)
	if fault := srv.LastFault(); fault != nil {
		logger.Error("server stopped after an internal invariant violation", zap.String("fault", fault.Error()))
	}
	return err
}

func buildLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}
