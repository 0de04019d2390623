package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/ledger/internal/control"
)

var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Resolve and print the ledger base URL",
	Args:  cobra.NoArgs,
	RunE:  runHello,
}

func init() {
	rootCmd.AddCommand(helloCmd)
}

func runHello(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(app *control.App) error {
		url, err := app.Client.Hello(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
		return err
	})
}
