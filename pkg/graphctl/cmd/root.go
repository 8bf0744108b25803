package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
	"github.com/telekom/graphctl/pkg/graphctl/client"
	"github.com/telekom/graphctl/pkg/graphctl/config"
	"github.com/telekom/graphctl/pkg/graphctl/graph"
	"github.com/telekom/graphctl/pkg/graphctl/output"
	"github.com/telekom/graphctl/pkg/graphctl/session"
	"github.com/telekom/graphctl/pkg/metrics"
	"github.com/telekom/graphctl/pkg/system"
	"github.com/telekom/graphctl/pkg/telemetry"
	"github.com/telekom/graphctl/pkg/version"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	// ErrWriter receives logs and the device code prompt. Defaults to stderr.
	ErrWriter   io.Writer
	InputReader io.Reader
	// HTTPClient is used for the identity provider and Graph. Optional.
	HTTPClient *http.Client
	// Context is the parent of every command context, typically cancelled on SIGINT.
	Context context.Context
}

type runtimeState struct {
	configPath      string
	cfg             *config.Config
	outputFormat    string
	artifactsDir    string
	metricsTextfile string
	traceExporter   string
	traceEndpoint   string
	traceInsecure   bool
	nonInteractive  bool
	verbose         bool
	writer          io.Writer
	errWriter       io.Writer
	reader          io.Reader
	httpClient      *http.Client

	logger  *zap.SugaredLogger
	metrics *metrics.Recorder
	session *session.Session
	facade  *graph.Facade

	shutdownTracing telemetry.ShutdownFunc
	closed          bool
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
		ErrWriter:    os.Stderr,
		InputReader:  os.Stdin,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		writer:     cfg.OutputWriter,
		errWriter:  cfg.ErrWriter,
		reader:     cfg.InputReader,
		httpClient: cfg.HTTPClient,
		metrics:    metrics.NewRecorder(),
	}

	root := &cobra.Command{
		Use:           "graphctl",
		Short:         "Microsoft Graph CLI using device code sign-in",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.errWriter == nil {
				rt.errWriter = os.Stderr
			}
			if rt.reader == nil {
				rt.reader = os.Stdin
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.outputFormat == "" {
				rt.outputFormat = os.Getenv("GRAPHCTL_OUTPUT")
			}
			if !rt.nonInteractive {
				rt.nonInteractive = strings.EqualFold(os.Getenv("GRAPHCTL_NON_INTERACTIVE"), "true")
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("GRAPHCTL_VERBOSE"), "true")
			}
			if rt.traceExporter == "" {
				rt.traceExporter = os.Getenv("GRAPHCTL_TRACE_EXPORTER")
			}
			if rt.traceEndpoint == "" {
				rt.traceEndpoint = os.Getenv("GRAPHCTL_TRACE_ENDPOINT")
			}

			// Skip config loading for commands that don't need it
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			if _, err := output.ParseFormat(rt.OutputFormat()); err != nil {
				return err
			}
			return rt.initTracing(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().StringVar(&rt.artifactsDir, "artifacts-dir", "", "Directory for downloaded and uploaded photos")
	root.PersistentFlags().StringVar(&rt.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	root.PersistentFlags().StringVar(&rt.traceExporter, "trace-exporter", "", "Trace Graph requests: stdout (to stderr), otlp or none")
	root.PersistentFlags().StringVar(&rt.traceEndpoint, "trace-endpoint", "", "OTLP/HTTP collector endpoint, e.g. localhost:4318")
	root.PersistentFlags().BoolVar(&rt.traceInsecure, "trace-insecure", false, "Disable TLS for the OTLP connection")
	root.PersistentFlags().BoolVar(&rt.nonInteractive, "non-interactive", false, "Fail instead of prompting for a device code sign-in")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")

	if cfg.OutputWriter != nil {
		root.SetOut(cfg.OutputWriter)
	}
	if cfg.ErrWriter != nil {
		root.SetErr(cfg.ErrWriter)
	}

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	root.SetContext(context.WithValue(parent, runtimeKey{}, rt))

	root.AddCommand(
		NewConfigCommand(),
		NewAuthCommand(),
		NewMeCommand(),
		NewInboxCommand(),
		NewSendCommand(),
		NewPhotoCommand(),
		NewMenuCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

// Execute runs the command tree for args and then flushes metrics and traces, also when
// the command failed.
func Execute(cfg Config, args []string) error {
	root := NewRootCommand(cfg)
	root.SetArgs(args)
	err := root.Execute()
	if rt, rtErr := getRuntime(root); rtErr == nil {
		err = errors.Join(err, rt.close(context.WithoutCancel(root.Context())))
	}
	return err
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) OutputFormat() string {
	if rt.outputFormat != "" {
		return rt.outputFormat
	}
	if rt.cfg != nil && rt.cfg.Settings.OutputFormat != "" {
		return rt.cfg.Settings.OutputFormat
	}
	return "table"
}

func (rt *runtimeState) Format() output.Format {
	f, err := output.ParseFormat(rt.OutputFormat())
	if err != nil {
		return output.FormatTable
	}
	return f
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.logger == nil {
		rt.logger = system.NewLogger(rt.errWriter, rt.verbose)
	}
	return rt.logger
}

func (rt *runtimeState) Prompt() auth.PromptSink {
	if rt.nonInteractive {
		return auth.NonInteractivePrompt{}
	}
	return auth.ConsolePrompt{W: rt.errWriter}
}

func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	return nil
}

// Session returns the process-wide session, initializing it from the loaded config on
// first use. Initialization does not sign in; the first Graph call or token request does.
func (rt *runtimeState) Session() (*session.Session, error) {
	if rt.session != nil {
		return rt.session, nil
	}
	if err := rt.EnsureConfigLoaded(); err != nil {
		return nil, err
	}
	if err := rt.cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := rt.cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	sess := session.New(
		session.WithLogger(rt.Logger()),
		session.WithMetrics(rt.metrics),
		session.WithHTTPClient(rt.httpClient),
		session.WithClientOptions(
			client.WithBaseURL(rt.cfg.GraphEndpoint),
			client.WithTimeout(timeout),
			client.WithUserAgent(version.UserAgent()),
			client.WithRateLimit(rt.cfg.Settings.RateLimit, rt.cfg.Settings.Burst),
			client.WithDebug(rt.verbose),
		),
	)
	if err := sess.InitializeForUserAuth(rt.cfg.AuthConfiguration(), rt.Prompt()); err != nil {
		return nil, err
	}
	rt.session = sess
	return sess, nil
}

func (rt *runtimeState) Facade() (*graph.Facade, error) {
	if rt.facade != nil {
		return rt.facade, nil
	}
	sess, err := rt.Session()
	if err != nil {
		return nil, err
	}
	dir := rt.artifactsDir
	if dir == "" && rt.cfg != nil {
		dir = rt.cfg.ArtifactsDir
	}
	rt.facade = graph.New(sess, graph.WithArtifactsDir(dir), graph.WithLogger(rt.Logger()))
	return rt.facade, nil
}

func (rt *runtimeState) initTracing(ctx context.Context) error {
	if rt.traceExporter == "" || rt.shutdownTracing != nil {
		return nil
	}
	_, shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:        true,
		ServiceVersion: version.Version,
		Exporter:       rt.traceExporter,
		Writer:         rt.errWriter,
		Endpoint:       rt.traceEndpoint,
		Insecure:       rt.traceInsecure,
		Logger:         rt.Logger(),
	})
	if err != nil {
		return err
	}
	rt.shutdownTracing = shutdown
	return nil
}

// close writes the metrics textfile and flushes pending spans. It runs once.
func (rt *runtimeState) close(ctx context.Context) error {
	if rt.closed {
		return nil
	}
	rt.closed = true
	var errs []error
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
	}
	if rt.metricsTextfile != "" {
		if err := rt.metrics.WriteTextfile(rt.metricsTextfile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}

// render writes obj as json/yaml, or calls table for the table format.
func (rt *runtimeState) render(obj any, table func(io.Writer)) error {
	format := rt.Format()
	if format == output.FormatTable {
		table(rt.Writer())
		return nil
	}
	return output.WriteObject(rt.Writer(), format, obj)
}
