package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/NERVsystems/restaurantmcp/pkg/config"
	"github.com/NERVsystems/restaurantmcp/pkg/httpapi"
	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/NERVsystems/restaurantmcp/pkg/osm"
	"github.com/NERVsystems/restaurantmcp/pkg/server"
	"github.com/NERVsystems/restaurantmcp/pkg/tools"
	"github.com/NERVsystems/restaurantmcp/pkg/version"
	"golang.org/x/sync/errgroup"
)

var (
	showVersion    bool
	debug          bool
	httpOnly       bool
	generateConfig string
)

func init() {
	flag.BoolVar(&showVersion, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&httpOnly, "http", false, "Serve only the HTTP API, without MCP on stdio")
	flag.StringVar(&generateConfig, "generate-config", "", "Generate a Claude Desktop Client config file at the specified path")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(2)
	}

	// Configure logging. Stdout belongs to the MCP transport.
	logLevel := cfg.SlogLevel()
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if generateConfig != "" {
		if err := generateClientConfig(generateConfig); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully generated Claude Desktop Client config", "path", generateConfig)
		return
	}

	logger.Info("starting restaurant finder",
		"version", version.BuildVersion,
		"log_level", logLevel.String(),
		"http", cfg.HTTPEnabled || httpOnly,
		"mcp", !httpOnly)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// run wires the components and serves until ctx is cancelled or the MCP
// client disconnects.
func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *slog.Logger) error {
	client := osm.NewClient(osm.Options{
		NominatimURL:     cfg.NominatimURL,
		OverpassURL:      cfg.OverpassURL,
		UserAgent:        cfg.UserAgent,
		Email:            cfg.ContactEmail,
		NominatimTimeout: cfg.NominatimTimeout,
		OverpassTimeout:  cfg.OverpassTimeout,
		Logger:           logger,
	})
	svc := lookup.New(client, client, lookup.Options{MaxRadius: cfg.MaxRadius}, logger)
	dispatcher := tools.NewDispatcher(svc, logger)

	g, ctx := errgroup.WithContext(ctx)

	if !httpOnly {
		srv, err := server.NewServer(dispatcher, logger)
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		g.Go(func() error {
			// The MCP client going away ends the process.
			defer stop()
			return srv.Run(ctx)
		})
	}

	if cfg.HTTPEnabled || httpOnly {
		api := httpapi.New(cfg, dispatcher, svc, logger)
		g.Go(func() error {
			return api.Run(ctx)
		})
	}

	return g.Wait()
}

// generateClientConfig creates or updates a Claude Desktop Client config file
func generateClientConfig(outputPath string) error {
	logger := slog.Default()

	if outputPath == "" {
		return errors.New("config path must not be empty")
	}
	if filepath.Ext(outputPath) != ".json" {
		return fmt.Errorf("config path %q must have a .json extension", outputPath)
	}
	for _, part := range strings.Split(filepath.ToSlash(outputPath), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", outputPath)
		}
	}

	// Get absolute path to executable
	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	absExecPath, err := filepath.Abs(execPath)
	if err != nil {
		absExecPath = execPath
	}

	serverConfig := map[string]any{
		"command": absExecPath,
		"args":    []string{},
	}

	var clientConfig map[string]any
	if data, err := os.ReadFile(outputPath); err == nil {
		if err := json.Unmarshal(data, &clientConfig); err != nil {
			logger.Warn("existing config is not valid JSON, will create new", "error", err)
			clientConfig = nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read existing config: %w", err)
	}
	if clientConfig == nil {
		clientConfig = make(map[string]any)
	}

	mcpServers, ok := clientConfig["mcpServers"].(map[string]any)
	if !ok {
		mcpServers = make(map[string]any)
		clientConfig["mcpServers"] = mcpServers
	}
	mcpServers[server.ServerName] = serverConfig

	data, err := json.MarshalIndent(clientConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(outputPath, 0o600)
}
