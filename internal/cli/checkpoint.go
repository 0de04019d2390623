package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/ledger/internal/control"
	"github.com/vietddude/ledger/internal/core/cursor"
	"github.com/vietddude/ledger/internal/core/worker"
	"github.com/vietddude/ledger/internal/infra/storage"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and manage list checkpoints",
}

var checkpointStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every stored checkpoint",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointStatus,
}

var checkpointResetCmd = &cobra.Command{
	Use:   "reset <name>",
	Short: "Rewind a checkpoint to the start of its query",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointReset,
}

var checkpointDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointDelete,
}

var pruneOlderThan time.Duration

var checkpointPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete finished checkpoints older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointPrune,
}

func init() {
	checkpointPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "retention period (default checkpoint.retention)")
	checkpointCmd.AddCommand(checkpointStatusCmd, checkpointResetCmd, checkpointDeleteCmd, checkpointPruneCmd)
	rootCmd.AddCommand(checkpointCmd)
}

func withCheckpoints(ctx context.Context, fn func(m *cursor.Manager) error) error {
	manager, closeFn, err := control.OpenCheckpoints(ctx, cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeFn()
	}()
	return fn(manager)
}

func runCheckpointStatus(cmd *cobra.Command, args []string) error {
	return withCheckpoints(cmd.Context(), func(m *cursor.Manager) error {
		list, err := m.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tACTION\tSTATE\tPAGES\tITEMS\tCURSOR\tUPDATED")
		for _, cp := range list {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				cp.Name, cp.Action, cursor.StateOf(cp), cp.Pages, cp.Items,
				cp.Cursor, cp.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}

func runCheckpointReset(cmd *cobra.Command, args []string) error {
	return withCheckpoints(cmd.Context(), func(m *cursor.Manager) error {
		if err := m.Reset(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "checkpoint %s reset\n", args[0])
		return err
	})
}

func runCheckpointDelete(cmd *cobra.Command, args []string) error {
	return withCheckpoints(cmd.Context(), func(m *cursor.Manager) error {
		if err := m.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "checkpoint %s deleted\n", args[0])
		return err
	})
}

func runCheckpointPrune(cmd *cobra.Command, args []string) error {
	retention := pruneOlderThan
	if retention == 0 {
		retention = cfg.Checkpoint.Retention
	}
	if retention <= 0 {
		return errors.New("no retention period: set --older-than or checkpoint.retention")
	}

	return withCheckpoints(cmd.Context(), func(m *cursor.Manager) error {
		pruned, err := worker.NewPruner(retention, m).PruneOnce(cmd.Context())
		for _, name := range pruned {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pruned %s\n", name)
		}
		return err
	})
}

// resetIfExists rewinds name before a --restart run.
func resetIfExists(ctx context.Context, app *control.App, name string) error {
	err := app.Checkpoints.Reset(ctx, name)
	if errors.Is(err, storage.ErrCheckpointNotFound) {
		return nil
	}
	return err
}

