package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/getmockd/routeset/pkg/logging"
	"github.com/getmockd/routeset/pkg/matcher"
	"github.com/getmockd/routeset/pkg/metrics"
	"github.com/getmockd/routeset/pkg/router"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

type serveFlags struct {
	configPath  string
	addr        string
	jwtSecret   string
	strict      bool
	accessLog   string
	maxBodySize int64
	printURL    bool
	h2c         bool
	otlp        bool
	metricsAddr string
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the responses of a route file over HTTP (foreground)",
	Long: `Serve the responses configured in a route file. Each request is routed to
one endpoint and answered with that endpoint's response; {name} placeholders
in headers and body are filled from the values captured while matching.

Requests that match nothing get 404, ambiguous matches in --strict mode get
500. Both carry a JSON error body. Runs until SIGINT or SIGTERM.

With --otlp, every request is traced and the spans are exported over
OTLP/HTTP to the endpoint named by OTEL_EXPORTER_OTLP_ENDPOINT. With
--metrics-addr, request counts and latencies per endpoint are served in the
Prometheus text format at /metrics on a separate listener.`,
	Example: `  # Serve on port 8080
  routeset serve -c routes.yaml --addr :8080

  # Keep a JSON access log of every routing decision
  routeset serve -c routes.yaml --access-log access.jsonl

  # Expose Prometheus metrics on port 9090
  routeset serve -c routes.yaml --metrics-addr :9090`,
	RunE: runServe,
}

func init() {
	f := &serveFlagVals
	serveCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Route file or glob (YAML or JSON) [required]")
	serveCmd.Flags().StringVar(&f.addr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&f.jwtSecret, "jwt-secret", "", "HMAC secret for verifying bearer tokens")
	serveCmd.Flags().BoolVar(&f.strict, "strict", false, "Reject requests whose winning score is shared")
	serveCmd.Flags().StringVar(&f.accessLog, "access-log", "", "Append JSON routing decisions to this file")
	serveCmd.Flags().Int64Var(&f.maxBodySize, "max-body-size", matcher.DefaultMaxBodySize, "Largest request body read for matching, in bytes")
	serveCmd.Flags().BoolVar(&f.printURL, "print-url", false, "Print the server URL to stdout on startup")
	serveCmd.Flags().BoolVar(&f.h2c, "h2c", false, "Also accept HTTP/2 without TLS (prior knowledge or upgrade)")
	serveCmd.Flags().BoolVar(&f.otlp, "otlp", false, "Export request traces over OTLP/HTTP")
	serveCmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics at /metrics on this address")
	_ = serveCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	f := &serveFlagVals

	base, closeLog, err := serveLogger(f.accessLog)
	if err != nil {
		return err
	}
	defer closeLog()
	log := base.With("component", "serve")

	if f.otlp {
		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	var opts []router.Option
	var servers []*http.Server
	errCh := make(chan error, 2)
	if f.metricsAddr != "" {
		reg := metrics.NewRegistry()
		routing, err := metrics.NewRouting(reg)
		if err != nil {
			return err
		}
		opts = append(opts, router.WithMetrics(routing))

		msrv, mln, err := listen(f.metricsAddr, metricsMux(reg))
		if err != nil {
			return err
		}
		servers = append(servers, msrv)
		go func() { errCh <- msrv.Serve(mln) }()
		log.Info("metrics server started", "addr", mln.Addr().String())
	}

	handler, routes, err := buildHandler(f, base, opts...)
	if err != nil {
		return err
	}

	srv, ln, err := listen(f.addr, handler)
	if err != nil {
		return err
	}
	servers = append(servers, srv)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if f.printURL {
		fmt.Fprintf(cmd.OutOrStdout(), "http://%s\n", ln.Addr())
	}
	log.Info("server started", "addr", ln.Addr().String(), "routes", routes, "config", f.configPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var errs []error
	for _, s := range servers {
		errs = append(errs, s.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}

func listen(addr string, h http.Handler) (*http.Server, net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}, ln, nil
}

func metricsMux(reg *metrics.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", reg.Handler())
	return mux
}

// buildHandler loads the route file and returns the instrumented router with
// the number of routable endpoints.
func buildHandler(f *serveFlags, log *slog.Logger, opts ...router.Option) (http.Handler, int, error) {
	file, err := loadRoutes(f.configPath)
	if err != nil {
		return nil, 0, err
	}
	set := file.Endpoints()
	if len(set.Routes) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrNoRoutes, f.configPath)
	}

	m, err := set.Matcher(matcher.Config{
		MaxBodySize:  f.maxBodySize,
		Strict:       f.strict,
		ClaimsSecret: []byte(f.jwtSecret),
		Logger:       log.With("component", "matcher"),
	})
	if err != nil {
		return nil, 0, err
	}
	var h http.Handler = router.New(m, log.With("component", "router"), opts...)
	h = otelhttp.NewHandler(h, serviceName)
	if f.h2c {
		h = h2c.NewHandler(h, &http2.Server{})
	}
	return h, len(set.Routes), nil
}

// serveLogger returns the CLI logger, teed into a JSON access log at debug
// level when path is set.
func serveLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return logger, func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open access log: %w", err)
	}
	log := logging.WithAccessLog(logger, file)
	return log, func() { _ = file.Close() }, nil
}
