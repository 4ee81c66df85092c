package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cropsight/internal/crops"
)

type rootOptions struct {
	CropTable string
	Compact   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "cropctl",
		Short:         "Vegetation index analytics and crop inference from the command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.CropTable, "crop-table", "", "crop parameter YAML (default: built-in table)")
	pf.BoolVar(&opts.Compact, "compact", false, "print JSON on one line")

	cmd.AddCommand(
		newIndicesCmd(opts),
		newAnalyzeCmd(opts),
		newCropsCmd(opts),
		newCatalogCmd(opts),
	)
	return cmd
}

func (o *rootOptions) table() (*crops.Table, error) {
	if o.CropTable == "" {
		return crops.Default(), nil
	}
	return crops.Load(o.CropTable)
}

func (o *rootOptions) print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if !o.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
