// Package cli implements the bindgen command tree.
package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/toyz/bindgen/internal/extract"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bindgen",
		Short: "Foreign-language bindings from compiled shared libraries",
		Long: color.CyanString(`bindgen - bindings generator

Reads the interface metadata compiled into a shared library and generates
bindings for each library it packages, resolving types shared between them.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewMetadataCommand(extract.New()))
	rootCmd.AddCommand(NewCleanCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)

			title.Fprint(out, "bindgen version: ")
			fmt.Fprintln(out, Version)
			title.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			title.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
			title.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
		},
	}
}

// NewCleanCommand creates the clean command
func NewCleanCommand() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "clean DIR...",
		Short: "Delete generated Go bindings",
		Long:  `Deletes Go files written by bindgen. A trailing "/..." cleans every directory below DIR.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnostics := newDiagnostics(cmd, false, quiet)
			removed, err := NewCleaner().CleanGeneratedFiles(args)
			for _, path := range removed {
				diagnostics.List("removed %s", path)
			}
			if err != nil {
				diagnostics.Error("Clean operation failed: %v", err)
				return err
			}
			diagnostics.Success("%d generated files removed", len(removed))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only show errors")
	return cmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
