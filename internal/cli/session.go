package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YosiSF/EinsteinDB-sub004/internal/conn"
	"github.com/YosiSF/EinsteinDB-sub004/internal/metrics"
)

// Execute runs the CLI with args and returns the process exit code.
// Errors are written to stderr, or to stdout as a JSON response with
// --format json.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		// cobra usage errors: unknown commands, flags and arity
		exitErr = WrapExitError(ExitCommandError, "command error", err)
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	out := &OutputFormatter{Format: format, Writer: stderr}
	if format == "json" {
		out.Writer = stdout
	}
	code := ErrorCode(err)
	if code == "COMMAND_ERROR" && exitErr.Code == ExitFailure {
		code = "FAILED"
	}
	_ = out.Error(code, exitErr.Error())
	return exitErr.Code
}

// session is an open connection plus the metrics registry it reports to.
type session struct {
	conn     *conn.Conn
	registry *prometheus.Registry
}

// openSession opens the configured database.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg := opts.Config
	copts := []conn.Option{
		conn.WithBusyTimeout(cfg.Database.BusyTimeoutMS),
		conn.WithCacheSize(cfg.Cache.MaxEntries),
	}

	s := &session{}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		copts = append(copts, conn.WithMetrics(metrics.New(s.registry, cfg.Metrics.Namespace)))
	}

	slog.Debug("opening database", "path", cfg.Database.Path)
	c, err := conn.Open(ctx, cfg.Database.Path, copts...)
	if err != nil {
		return nil, storeExitError("failed to open database", err)
	}
	s.conn = c
	return s, nil
}

// close logs the collected metrics at debug level and closes the
// connection.
func (s *session) close() {
	if s.registry != nil {
		families, err := s.registry.Gather()
		if err != nil {
			slog.Error("failed to gather metrics", "error", err)
		}
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				value := m.GetCounter().GetValue()
				if h := m.GetHistogram(); h != nil {
					value = float64(h.GetSampleCount())
				}
				attrs := []any{"metric", mf.GetName(), "value", value}
				for _, lp := range m.GetLabel() {
					attrs = append(attrs, lp.GetName(), lp.GetValue())
				}
				slog.Debug("metric", attrs...)
			}
		}
	}
	if err := s.conn.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
