package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cropsight/internal/crops"
	"cropsight/internal/engine"
	"cropsight/internal/indices"
)

type bandsFile struct {
	Bands          map[string]float64 `json:"bands"`
	DigitalNumbers bool               `json:"digital_numbers,omitempty"`
	Scale          float64            `json:"scale,omitempty"`
}

func newIndicesCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "indices -f bands.json",
		Short: "Compute the 19 spectral indices from one band set",
		Long: `Reads {"bands": {...}, "digital_numbers": false, "scale": 10000}.
Bands are named blue, green, red, red_edge_1..3, nir, nir_narrow, swir1, swir2
or by Sentinel-2 id (B2..B12, B8A).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			var in bandsFile
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("decode bands: %w", err)
			}
			var bands indices.BandSet
			if in.DigitalNumbers {
				bands, err = indices.FromDigitalNumbers(in.Bands, in.Scale)
			} else {
				bands, err = indices.NewBandSet(in.Bands)
			}
			if err != nil {
				return err
			}
			set, err := indices.Compute(bands)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), set)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `input JSON file ("-" for stdin)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		file        string
		parallelism int
	)
	cmd := &cobra.Command{
		Use:   "analyze -f input.json",
		Short: "Run the comprehensive field analysis",
		Long: `Reads one analysis input object, or an array of them which are analyzed
in parallel. Reports are printed in input order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			table, err := opts.table()
			if err != nil {
				return err
			}
			eng := engine.New(table)

			if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
				var inputs []engine.Input
				if err := json.Unmarshal(trimmed, &inputs); err != nil {
					return fmt.Errorf("decode inputs: %w", err)
				}
				reps, err := eng.AnalyzeBatch(cmd.Context(), inputs, parallelism)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), reps)
			}

			var in engine.Input
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("decode input: %w", err)
			}
			rep, err := eng.Analyze(in)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `input JSON file ("-" for stdin)`)
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 4, "concurrent analyses for array input")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type cropsOut struct {
	Default string         `json:"default"`
	Crops   []crops.Params `json:"crops"`
}

func newCropsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "List the crop parameter table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.table()
			if err != nil {
				return err
			}
			names := table.Names()
			params := make([]crops.Params, 0, len(names))
			for _, n := range names {
				p, _ := table.Lookup(n)
				params = append(params, p)
			}
			return opts.print(cmd.OutOrStdout(), cropsOut{Default: table.DefaultName(), Crops: params})
		},
	}
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Describe every index: name, formula and meaning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.print(cmd.OutOrStdout(), indices.Catalog)
		},
	}
}
