package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/vietddude/ledger/internal/control"
	"github.com/vietddude/ledger/internal/infra/ledger"
)

var (
	pageQuery  queryFlags
	pageCursor string
)

var pageCmd = &cobra.Command{
	Use:   "page <action>",
	Short: "Fetch a single page of a list action and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runPage,
}

func init() {
	pageQuery.register(pageCmd.Flags())
	pageCmd.Flags().StringVar(&pageCursor, "cursor", "", "cursor returned by a previous page")
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(app *control.App) error {
		q := pageQuery.query().WithCursor(pageCursor)
		page, err := ledger.GetPage[json.RawMessage](ctx, app.Client, args[0], q)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	})
}
