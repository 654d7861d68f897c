// catalog-cli runs the complaint matching pipeline against a YAML catalog
// without Zeebe or any database.
//
// Usage:
//
//	catalog-cli search [--catalog=<path>] [--dictionary=<path>] [--context=<label>] [--top=N] <complaint text>
//	catalog-cli validate [--catalog=<path>] [--dictionary=<path>]
//	catalog-cli ticket --id=<catalog id> --confidence=<c> [--text=<complaint>] [--unit=<id>] [--scope=UNIT|COMMON]
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog-cli",
		Short:         "Match complaints against a service catalog file",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.AddCommand(newSearchCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newTicketCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
