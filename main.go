package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-searxng/internal/cli"
	"github.com/sammcj/mcp-searxng/internal/config"
	"github.com/sammcj/mcp-searxng/internal/registry"
	"github.com/sammcj/mcp-searxng/internal/server"
	"github.com/sammcj/mcp-searxng/internal/telemetry"
	"github.com/sammcj/mcp-searxng/internal/tools"
	"github.com/sirupsen/logrus"
	ucli "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup
var (
	logFile     atomic.Pointer[os.File]
	isStdioMode atomic.Bool
)

// runtime holds everything a serving command needs after start-up
type runtime struct {
	cfg         *config.Config
	logger      *logrus.Logger
	errorLogger *tools.ErrorLogger
	shutdowns   []func() error
}

func (r *runtime) close() {
	for i := len(r.shutdowns) - 1; i >= 0; i-- {
		if err := r.shutdowns[i](); err != nil {
			r.logger.WithError(err).Debug("Shutdown hook failed")
		}
	}
	if err := r.errorLogger.Close(); err != nil {
		r.logger.WithError(err).Warn("Failed to close tool error logger")
	}
	if file := logFile.Load(); file != nil {
		_ = file.Close()
	}
}

// parseLogLevel parses a level name, defaulting to warn
func parseLogLevel(value string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

// configureLogging sends logs to ~/.mcp-searxng/logs. In stdio mode the fallback is io.Discard, never stdout or stderr.
func configureLogging(logger *logrus.Logger, level logrus.Level) {
	logger.SetLevel(level)
	logrus.SetLevel(level)

	fallback := io.Writer(os.Stderr)
	if isStdioMode.Load() {
		fallback = io.Discard
	}

	dir, err := logDir()
	if err == nil {
		err = os.MkdirAll(dir, 0700)
	}
	var file *os.File
	if err == nil {
		file, err = os.OpenFile(filepath.Join(dir, "mcp-searxng.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	}
	if err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}

	logFile.Store(file)
	logger.SetOutput(file)
	logrus.SetOutput(file)
	logger.WithField("level", level.String()).Debug("Logging configured")
}

func logDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mcp-searxng", "logs"), nil
}

// setup resolves configuration, logging, telemetry and the tool registry for a command
func setup(cmd *ucli.Command, logger *logrus.Logger, transport string) (*runtime, error) {
	isStdioMode.Store(transport == "stdio")
	configureLogging(logger, parseLogLevel(cmd.String("log-level")))

	cfg, err := config.Load(Version)
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("searxng-url") {
		cfg.SearXNGURL = cmd.String("searxng-url")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if cmd.IsSet("timeout") {
		if cfg.Timeout, err = config.ParseTimeout(cmd.String("timeout")); err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
	}

	rt := &runtime{cfg: cfg, logger: logger}

	if shutdown, err := telemetry.InitTracer(logger, Version); err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	} else {
		rt.shutdowns = append(rt.shutdowns, shutdown)
	}
	if shutdown, err := telemetry.InitMetrics(logger, Version); err != nil {
		logger.WithError(err).Warn("Metrics disabled")
	} else {
		rt.shutdowns = append(rt.shutdowns, shutdown)
	}
	telemetry.SetSession(telemetry.GenerateSessionID(), transport)

	if dir, err := logDir(); err == nil {
		rt.errorLogger, err = tools.NewErrorLogger(dir, cmd.Bool("log-tool-errors"), logger)
		if err != nil {
			logger.WithError(err).Debug("Failed to initialise tool error logger")
		}
	}

	registry.Init(logger, cfg.DisabledTools)
	if err := server.RegisterTools(cfg, logger); err != nil {
		rt.close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      Commit,
		"transport":   transport,
		"searxng_url": telemetry.SanitiseURL(cfg.SearXNGURL),
		"timeout":     cfg.Timeout,
	}).Info("Starting mcp-searxng")
	return rt, nil
}

func (r *runtime) newMCPServer(transport string) *mcpserver.MCPServer {
	return server.New(r.logger, server.Options{
		Version:     Version,
		Transport:   transport,
		ErrorLogger: r.errorLogger,
	})
}

// printBanner writes the start-up banner to stderr
func printBanner(transport, endpoint, searxngURL string) {
	out := color.Error
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)

	_, _ = title.Fprintf(out, "mcp-searxng %s\n", Version)
	_, _ = label.Fprint(out, "  transport: ")
	_, _ = fmt.Fprintln(out, transport)
	if endpoint != "" {
		_, _ = label.Fprint(out, "  endpoint:  ")
		_, _ = fmt.Fprintln(out, endpoint)
	}
	_, _ = label.Fprint(out, "  searxng:   ")
	_, _ = fmt.Fprintln(out, telemetry.SanitiseURL(searxngURL))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// .env values never override variables already present in the environment
	if err := config.LoadDotEnv(".env"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	app := &ucli.Command{
		Name:    "mcp-searxng",
		Usage:   "MCP server exposing a SearXNG instance as a search tool",
		Version: Version,
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level: debug, info, warn or error",
				Sources: ucli.EnvVars("LOG_LEVEL"),
			},
			&ucli.StringFlag{
				Name:    "searxng-url",
				Usage:   "Base URL of the SearXNG instance (overrides " + config.EnvSearXNGURL + ")",
				Sources: ucli.EnvVars(config.EnvSearXNGURL),
			},
			&ucli.StringFlag{
				Name:    "timeout",
				Usage:   "Backend request timeout as seconds or a duration such as 30s; 0 disables",
				Sources: ucli.EnvVars(config.EnvTimeout),
			},
			&ucli.BoolFlag{
				Name:    "log-tool-errors",
				Usage:   "Append failed tool calls to ~/.mcp-searxng/logs/" + tools.ErrorLogFileName,
				Sources: ucli.EnvVars("LOG_TOOL_ERRORS"),
			},
		},
		Commands: []*ucli.Command{
			stdioCommand(logger),
			httpCommand(logger),
			schemaCommand(logger),
			toolsCommand(logger),
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					fmt.Printf("mcp-searxng version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if !isStdioMode.Load() {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.WithError(err).Error("Exiting")
		os.Exit(1)
	}
}

func stdioCommand(logger *logrus.Logger) *ucli.Command {
	return &ucli.Command{
		Name:  "stdio",
		Usage: "Serve MCP over stdin/stdout",
		Flags: []ucli.Flag{
			&ucli.BoolFlag{Name: "show-banner", Value: true, Usage: "Print a start-up banner to stderr"},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			rt, err := setup(cmd, logger, "stdio")
			if err != nil {
				return err
			}
			defer rt.close()

			if cmd.Bool("show-banner") {
				printBanner("stdio", "", rt.cfg.SearXNGURL)
			}

			stdio := mcpserver.NewStdioServer(rt.newMCPServer("stdio"))
			stdio.SetErrorLogger(log.New(logger.WriterLevel(logrus.ErrorLevel), "stdio: ", 0))
			return stdio.Listen(ctx, os.Stdin, os.Stdout)
		},
	}
}

func httpCommand(logger *logrus.Logger) *ucli.Command {
	return &ucli.Command{
		Name:  "http",
		Usage: "Serve MCP over streamable HTTP or SSE",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:  "transport",
				Value: server.TransportHTTP,
				Usage: "http, streamable-http or sse",
			},
			&ucli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "Interface to listen on"},
			&ucli.IntFlag{Name: "port", Value: config.DefaultHTTPPort, Usage: "Port to listen on"},
			&ucli.StringFlag{
				Name:  "path",
				Usage: "Endpoint path prefix (default from " + config.EnvDefaultPath + ", else /" + config.DefaultPath + ")",
			},
			&ucli.BoolFlag{Name: "stateless-http", Usage: "Disable session tracking for streamable HTTP"},
			&ucli.DurationFlag{Name: "session-timeout", Usage: "Expire idle streamable HTTP sessions; 0 keeps them"},
			&ucli.StringFlag{
				Name:    "auth-token",
				Usage:   "Require this Bearer token on every request",
				Sources: ucli.EnvVars("MCP_AUTH_TOKEN"),
			},
			&ucli.BoolFlag{Name: "show-banner", Value: true, Usage: "Print a start-up banner to stderr"},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			transport := cmd.String("transport")
			label := transport
			if label != server.TransportSSE {
				label = server.TransportHTTP
			}

			rt, err := setup(cmd, logger, label)
			if err != nil {
				return err
			}
			defer rt.close()

			path := rt.cfg.HTTPPath()
			if cmd.IsSet("path") {
				path = config.HTTPPath(cmd.String("path"))
			}
			opts := server.HTTPOptions{
				Transport:      transport,
				Host:           cmd.String("host"),
				Port:           int(cmd.Int("port")),
				Path:           path,
				Stateless:      cmd.Bool("stateless-http"),
				SessionTimeout: cmd.Duration("session-timeout"),
				AuthToken:      cmd.String("auth-token"),
			}

			if cmd.Bool("show-banner") {
				printBanner(transport, "http://"+opts.Addr()+path, rt.cfg.SearXNGURL)
			}
			return server.ServeHTTP(ctx, rt.newMCPServer(label), logger, opts)
		},
	}
}

func schemaCommand(logger *logrus.Logger) *ucli.Command {
	return &ucli.Command{
		Name:  "schema",
		Usage: "Print the definitions of the enabled tools",
		Flags: []ucli.Flag{
			&ucli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "json", Usage: "json or yaml"},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			rt, err := setup(cmd, logger, "cli")
			if err != nil {
				return err
			}
			defer rt.close()

			var defs []any
			for _, name := range registry.GetEnabledToolNames() {
				tool, _ := registry.GetTool(name)
				// round trip through JSON so YAML output uses the protocol field names
				data, err := json.Marshal(tool.Definition())
				if err != nil {
					return fmt.Errorf("failed to encode %s: %w", name, err)
				}
				var def any
				if err := json.Unmarshal(data, &def); err != nil {
					return err
				}
				defs = append(defs, def)
			}

			switch cmd.String("output") {
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				defer func() { _ = enc.Close() }()
				return enc.Encode(defs)
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			default:
				return fmt.Errorf("unsupported output format: %s", cmd.String("output"))
			}
		},
	}
}

func toolsCommand(logger *logrus.Logger) *ucli.Command {
	outputFlag := &ucli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "text", Usage: "text or json"}
	runner := func(cmd *ucli.Command) (*cli.Runner, *runtime, error) {
		rt, err := setup(cmd, logger, "cli")
		if err != nil {
			return nil, nil, err
		}
		return cli.NewRunner(logger, os.Stdout, cli.OutputFormat(cmd.String("output"))), rt, nil
	}

	return &ucli.Command{
		Name:  "tools",
		Usage: "Call tools directly without an MCP client",
		Commands: []*ucli.Command{
			{
				Name:  "list",
				Usage: "List enabled tools",
				Flags: []ucli.Flag{outputFlag},
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					r, rt, err := runner(cmd)
					if err != nil {
						return err
					}
					defer rt.close()
					return r.ListTools()
				},
			},
			{
				Name:      "help",
				Usage:     "Show a tool's parameters",
				ArgsUsage: "<tool>",
				Flags:     []ucli.Flag{outputFlag},
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one tool name")
					}
					r, rt, err := runner(cmd)
					if err != nil {
						return err
					}
					defer rt.close()
					return r.HelpTool(cmd.Args().First())
				},
			},
			{
				Name:            "run",
				Usage:           "Run a tool, e.g. tools run search --q=golang --format=csv",
				ArgsUsage:       "<tool> [--param=value ...] [json]",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *ucli.Command) error {
					args := cmd.Args().Slice()
					if len(args) == 0 {
						return fmt.Errorf("expected a tool name")
					}
					r, rt, err := runner(cmd)
					if err != nil {
						return err
					}
					defer rt.close()

					runCtx := ctx
					if rt.cfg.Timeout == 0 {
						var cancel context.CancelFunc
						runCtx, cancel = context.WithTimeout(ctx, 2*time.Minute)
						defer cancel()
					}
					return r.RunTool(runCtx, args[0], args[1:])
				},
			},
		},
	}
}
