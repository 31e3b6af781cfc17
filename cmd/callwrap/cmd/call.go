package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/callwrap/pkg/callwrap"
	"github.com/psantana5/callwrap/pkg/logging"
	"github.com/psantana5/callwrap/pkg/metrics"
)

var (
	// Call flags
	callMethod    string
	callData      string
	callTimeout   int
	callOnStatus  map[string]string
	callRepeat    int
	callInterval  time.Duration
	metricsListen string
)

// callCmd represents the call command
var callCmd = &cobra.Command{
	Use:   "call <url>",
	Short: "Issue a wrapped remote HTTP call",
	Long: `Issue an HTTP call through the callwrap wrapper. The call gets a fresh
cancellation signal (Ctrl-C aborts the in-flight request) and a timeout; on
failure the error is classified and logged, and --on-status hooks fire for
matching upstream status codes.

Example:
  callwrap call http://localhost:8080/status/200
  callwrap call http://localhost:8080/status/404 --on-status 404="resource missing"
  callwrap call http://localhost:8080/delay/5000 --timeout 1000
  callwrap call http://localhost:8080/health --repeat 100 --interval 1s --metrics-listen :9102`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVarP(&callMethod, "method", "X", "GET", "HTTP method")
	callCmd.Flags().StringVarP(&callData, "data", "d", "", "request body (sent as application/json)")
	callCmd.Flags().IntVar(&callTimeout, "timeout", 0, "per-call timeout in milliseconds (default 30000)")
	callCmd.Flags().StringToStringVar(&callOnStatus, "on-status", nil, "status=message hooks fired on matching server failures")
	callCmd.Flags().IntVar(&callRepeat, "repeat", 1, "number of calls to issue")
	callCmd.Flags().DurationVar(&callInterval, "interval", 2*time.Second, "pause between repeated calls")
	callCmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus call metrics on this address while running")
}

func runCall(cmd *cobra.Command, args []string) error {
	url := args[0]
	logger := NewCLILogger()

	// Host-level cancellation: Ctrl-C / SIGTERM cancels the invocation and
	// the wrapper signals the in-flight request to abort.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := NewTracingProvider(logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		provider.Shutdown(shutdownCtx)
	}()

	handlers, err := buildStatusHooks(logger)
	if err != nil {
		return err
	}

	timeout := callTimeout
	if timeout == 0 {
		timeout = ConfiguredTimeoutMillis()
	}

	opts := callwrap.Options{
		ErrorHandlers: handlers,
		TimeoutMillis: timeout,
		Logger:        logger,
	}

	if metricsListen != "" {
		opts.Observer = metrics.NewRecorder(nil)
		server := &http.Server{Addr: metricsListen, Handler: metrics.Handler()}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", map[string]interface{}{"error": err.Error()})
			}
		}()
		defer server.Close()
	}

	fn := newHTTPCallFunc(&http.Client{})

	// One token per interval; the first call goes out immediately.
	pacer := newCallPacer(callInterval)

	for i := 0; i < callRepeat; i++ {
		if err := pacer.Wait(ctx); err != nil {
			// Host cancelled while waiting for the next slot.
			return nil
		}

		start := time.Now()
		var data interface{}
		if callData != "" {
			data = callData
		}

		spanCtx, span := provider.StartSpan(ctx, "callwrap.Invoke",
			attribute.String("http.method", callMethod),
			attribute.String("http.url", url),
			attribute.Int("call.attempt", i+1),
		)
		outcome, callErr := callwrap.Invoke(spanCtx, fn, opts, &callwrap.CallConfig{
			Method: callMethod,
			URL:    url,
			Data:   data,
		})
		span.SetAttributes(attribute.String("call.outcome", outcome.Kind.String()))
		switch {
		case outcome.Response != nil:
			span.SetAttributes(attribute.Int("http.status_code", outcome.Response.Status))
		case outcome.Err != nil && outcome.Err.Status != 0:
			span.SetAttributes(attribute.Int("http.status_code", outcome.Err.Status))
		}
		if callErr != nil {
			span.RecordError(callErr)
			span.SetStatus(codes.Error, outcome.Kind.String())
		}
		span.End()

		if err := renderOutcome(outcome, callErr, time.Since(start)); err != nil {
			return err
		}

		if outcome.Kind == callwrap.OutcomeCancelled {
			return nil
		}
	}

	return nil
}

// newCallPacer spaces repeated calls one interval apart.
func newCallPacer(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// buildStatusHooks turns --on-status pairs into the wrapper's handler map
func buildStatusHooks(logger *logging.Logger) (map[int]func(), error) {
	if len(callOnStatus) == 0 {
		return nil, nil
	}
	handlers := make(map[int]func(), len(callOnStatus))
	for key, message := range callOnStatus {
		code, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid --on-status code %q: %w", key, err)
		}
		msg := message
		status := code
		handlers[code] = func() {
			logger.Warn(msg, map[string]interface{}{"status": status})
		}
	}
	return handlers, nil
}

// newHTTPCallFunc authors the caller side of the wrapper contract: an HTTP
// call that honors the injected cancellation signal and timeout, returns the
// response unmodified on 2xx/3xx, and rejects with a recognized error shape
// otherwise.
func newHTTPCallFunc(client *http.Client) callwrap.CallFunc[json.RawMessage] {
	return func(args []interface{}) (*callwrap.Response[json.RawMessage], error) {
		cfg, ok := args[len(args)-1].(*callwrap.CallConfig)
		if !ok {
			return nil, &callwrap.SetupError{Cause: fmt.Errorf("missing call configuration")}
		}

		rctx, cancel := context.WithTimeout(cfg.Signal, time.Duration(cfg.TimeoutMillis)*time.Millisecond)
		defer cancel()

		var body io.Reader
		switch d := cfg.Data.(type) {
		case nil:
		case string:
			body = strings.NewReader(d)
		default:
			raw, err := json.Marshal(d)
			if err != nil {
				return nil, &callwrap.SetupError{Cause: err}
			}
			body = bytes.NewReader(raw)
		}

		method := cfg.Method
		if method == "" {
			method = http.MethodGet
		}

		req, err := http.NewRequestWithContext(rctx, method, cfg.URL, body)
		if err != nil {
			return nil, &callwrap.SetupError{Cause: err}
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if len(cfg.Params) > 0 {
			q := req.URL.Query()
			for k, v := range cfg.Params {
				q.Set(k, v)
			}
			req.URL.RawQuery = q.Encode()
		}

		resp, err := client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// Keep the abort shape intact so the wrapper can tell a
				// signalled abort apart from a transport failure.
				return nil, err
			}
			return nil, &callwrap.TransportError{URL: cfg.URL, Cause: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &callwrap.TransportError{URL: cfg.URL, Cause: err}
		}

		if resp.StatusCode >= 400 {
			return nil, &callwrap.ServerError{
				Status:     resp.StatusCode,
				StatusText: http.StatusText(resp.StatusCode),
				Body:       string(raw),
			}
		}

		return &callwrap.Response[json.RawMessage]{
			Data:       raw,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}, nil
	}
}

type callReport struct {
	Outcome    string `json:"outcome" yaml:"outcome"`
	Status     int    `json:"status,omitempty" yaml:"status,omitempty"`
	StatusText string `json:"status_text,omitempty" yaml:"status_text,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Body       string `json:"body,omitempty" yaml:"body,omitempty"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

func renderOutcome(outcome callwrap.Outcome[json.RawMessage], callErr error, elapsed time.Duration) error {
	report := callReport{
		Outcome:    outcome.Kind.String(),
		DurationMs: elapsed.Milliseconds(),
	}
	switch outcome.Kind {
	case callwrap.OutcomeSuccess:
		report.Status = outcome.Response.Status
		report.StatusText = outcome.Response.StatusText
		report.Body = string(outcome.Response.Data)
	case callwrap.OutcomeFailure:
		report.ErrorKind = outcome.Err.Kind.String()
		report.Status = outcome.Err.Status
		report.StatusText = outcome.Err.StatusText
		if b, ok := outcome.Err.Body.(string); ok {
			report.Body = b
		}
	}

	switch OutputFormat() {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")
		table.Append("Outcome", report.Outcome)
		if report.Status != 0 {
			table.Append("Status", fmt.Sprintf("%d %s", report.Status, report.StatusText))
		}
		if report.ErrorKind != "" {
			table.Append("Error Kind", report.ErrorKind)
		}
		if report.Body != "" {
			table.Append("Body", report.Body)
		}
		table.Append("Duration", fmt.Sprintf("%dms", report.DurationMs))
		table.Render()
	}

	// The wrapper re-raised the original error; the caller (this command)
	// decides recovery. For a one-shot CLI that means a non-zero exit.
	if callErr != nil && callRepeat == 1 {
		return fmt.Errorf("call failed: %w", callErr)
	}
	return nil
}
