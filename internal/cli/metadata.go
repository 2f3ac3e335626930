package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toyz/bindgen/internal/library"
	"github.com/toyz/bindgen/internal/metadata"
)

// NewMetadataCommand creates the metadata command, which prints the items
// embedded in a shared library
func NewMetadataCommand(extractor library.Extractor) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "metadata PATH",
		Short: "Print the metadata embedded in a shared library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := extractor.Extract(args[0])
			if err != nil {
				NewDiagnosticReporter(cmd.ErrOrStderr(), false).ReportError(err)
				return fmt.Errorf("metadata extraction failed")
			}

			out := cmd.OutOrStdout()
			for _, item := range items {
				if !asJSON {
					fmt.Fprintln(out, metadata.Describe(item))
					continue
				}
				data, err := metadata.Encode(item)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON envelope per item")
	return cmd
}
