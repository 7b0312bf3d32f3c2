package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	seedOut    string
	seedImport string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Export or import the system library as YAML",
	Long: `Without flags, seed prints the current system library (charters, command
prompts, standards and templates) as YAML. --out writes it to a file instead.
--import replaces the stored library with a YAML file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig("")
		a, closer, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer closer.Close()
		defer a.Shutdown(cmd.Context())

		if seedImport != "" {
			f, err := os.Open(seedImport)
			if err != nil {
				return err
			}
			defer f.Close()
			tree, err := a.Library.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d top-level nodes from %s\n", len(tree), seedImport)
			return nil
		}

		w := cmd.OutOrStdout()
		if seedOut != "" {
			f, err := os.Create(seedOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return a.Library.Export(cmd.Context(), w)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOut, "out", "", "write the library to this file")
	seedCmd.Flags().StringVar(&seedImport, "import", "", "replace the library with this YAML file")
}
