package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/ledger/internal/control"
	"github.com/vietddude/ledger/internal/infra/ledger"
	"github.com/vietddude/ledger/internal/infra/ledger/paging"
)

var (
	listQuery   queryFlags
	listLimit   int
	listResume  string
	listRestart bool
	metricsPort int
)

var listCmd = &cobra.Command{
	Use:   "list <action>",
	Short: "Stream every item of a list action as JSON lines",
	Long: `Stream every item of a list action as JSON lines.

With --resume NAME, progress is checkpointed after each fully consumed page and
a later run with the same name continues from the first unconsumed page.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listQuery.register(listCmd.Flags())
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "stop after this many items (0 = no limit)")
	listCmd.Flags().StringVar(&listResume, "resume", "", "checkpoint name for resumable runs")
	listCmd.Flags().BoolVar(&listRestart, "restart", false, "reset the checkpoint before running")
	listCmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "serve /metrics and /health on this port while running")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	action := args[0]
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := metricsPort
	if port == 0 {
		port = cfg.Server.Port
	}

	return withApp(ctx, func(app *control.App) error {
		app.StartMetrics(port)

		q := listQuery.query()
		var opts []paging.Option

		if listResume != "" {
			if listRestart {
				if err := resetIfExists(ctx, app, listResume); err != nil {
					return err
				}
			}
			cp, err := app.Checkpoints.Start(ctx, listResume, action)
			if err != nil {
				return err
			}
			if cp.Done {
				slog.Info("Checkpoint already complete; use --restart to run again",
					"name", cp.Name, "items", cp.Items)
				return nil
			}
			if cp.Cursor != "" {
				slog.Info("Resuming", "name", cp.Name, "cursor", cp.Cursor, "items", cp.Items)
			}
			q = q.WithCursor(cp.Cursor)
			opts = append(opts, paging.WithPageConsumed(app.Checkpoints.Hook(listResume)))
		}

		n, err := stream(ctx, cmd, ledger.List[json.RawMessage](app.Client, action, q, opts...))
		slog.Info("List finished", "action", action, "items", n)
		if listResume != "" {
			m := app.Checkpoints.GetMetrics(listResume)
			slog.Debug("Checkpoint throughput", "name", listResume, "items_per_sec", m.ItemsPerSecond)
		}
		return err
	})
}

func stream(ctx context.Context, cmd *cobra.Command, it *paging.Iterator[json.RawMessage]) (int, error) {
	w := bufio.NewWriter(cmd.OutOrStdout())
	defer w.Flush()

	n := 0
	for item, err := range it.All(ctx) {
		if err != nil {
			return n, fmt.Errorf("list: %w", err)
		}
		if _, err := w.Write(item); err != nil {
			return n, err
		}
		if err := w.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
		if listLimit > 0 && n >= listLimit {
			break
		}
	}
	return n, nil
}
