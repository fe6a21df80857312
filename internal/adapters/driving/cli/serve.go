package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/chat"
	"github.com/custodia-labs/tollgate/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sweeper and accept commands on stdin",
	Long: `Run the background sweeper and read commands from standard input, one
per line, in the form:

  <caller-id> <command> [args...]

For example:

  alice redeem 3F9A0C1D2E4B5A68
  op-1 issue 2 day

Each line gets one reply on standard output. The server stops on EOF,
SIGINT or SIGTERM. With --metrics-addr, Prometheus metrics are served at
/metrics on that address.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
	serveCmd.Flags().Bool("ephemeral", false, "keep all state in memory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ephemeral, err := cmd.Flags().GetBool("ephemeral")
	if err != nil {
		return fmt.Errorf("getting ephemeral flag: %w", err)
	}
	svc, err := loadServices(ephemeral)
	if err != nil {
		return err
	}

	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("getting metrics-addr flag: %w", err)
	}
	if metricsAddr == "" {
		metricsAddr = svc.Settings.MetricsAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Section("serve")
	g, gctx := errgroup.WithContext(ctx)

	if svc.Scheduler != nil {
		g.Go(func() error {
			return svc.Scheduler.Start(gctx)
		})
	}

	if svc.Watch != nil {
		g.Go(func() error {
			// Losing hot reload is not worth stopping the server for.
			if err := svc.Watch(gctx); err != nil {
				logger.Warn("config: %v", err)
			}
			return nil
		})
	}

	if metricsAddr != "" && svc.Metrics != nil {
		srv := newMetricsServer(metricsAddr, svc.Metrics)
		g.Go(func() error {
			logger.Info("metrics: listening on %s", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	dispatcher := chat.NewDispatcher(svc.Access)
	g.Go(func() error {
		// EOF on stdin ends the whole server.
		defer cancel()
		return serveLines(gctx, cmd.InOrStdin(), cmd.OutOrStdout(), dispatcher)
	})

	return g.Wait()
}

func newMetricsServer(addr string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// serveLines dispatches "<caller> <command...>" lines from in until EOF or
// ctx is done.
func serveLines(ctx context.Context, in io.Reader, out io.Writer, d *chat.Dispatcher) error {
	interactive := isTerminal(in)
	prompt := func() {
		if interactive {
			fmt.Fprint(out, "> ")
		}
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading commands: %w", err)
					}
				default:
				}
				return nil
			}
			handleLine(ctx, out, d, line)
			prompt()
		}
	}
}

// handleLine runs one input line. Failures are reported to the caller and
// logged by the dispatcher; they never stop the server.
func handleLine(ctx context.Context, out io.Writer, d *chat.Dispatcher, line string) {
	caller, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	if caller == "" {
		return
	}
	if strings.TrimSpace(rest) == "" {
		fmt.Fprintf(out, "[%s] Missing command. Lines look like: <caller-id> <command> [args...]\n", caller)
		return
	}
	_ = d.Handle(ctx, caller, rest, func(reply string) {
		fmt.Fprintf(out, "[%s] %s\n", caller, reply)
	})
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
