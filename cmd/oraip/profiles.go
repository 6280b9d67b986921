package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.ngs.io/oraip-profiles/internal/domain"
	"go.ngs.io/oraip-profiles/internal/metrics"
	"go.ngs.io/oraip-profiles/internal/usecase"
)

type profilesOptions struct {
	layers  string
	refresh bool
	noRefs  bool
	asJSON  bool
	output  string
	diffRef string
}

func newProfilesCmd(a *app) *cobra.Command {
	opts := &profilesOptions{}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Compute the layered profiles of every product for a basin",
		Example: `  oraip profiles --basin Arctic --start 1993 --end 2010
  oraip profiles --basin Antarctic --products CGLORS,ECDA --json -o antarctic.json
  ORAIP_DATA_DIR=/data/oraip oraip profiles --basin Eurasian --diff MMM`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProfiles(cmd, a, opts)
		},
	}
	f := cmd.Flags()
	f.String("basin", "", "basin (Antarctic|Arctic|Eurasian|Amerasian|Fram Strait)")
	f.Int("start", 0, "first year")
	f.Int("end", 0, "last year")
	f.StringSlice("products", nil, "model products (default: the basin roster)")
	f.Int("workers", 0, "products reduced in parallel")
	f.Bool("cache", false, "reuse and store computed collections")
	f.String("cache-dir", "", "collection cache directory")
	f.StringVar(&opts.layers, "layers", "", `layers as "0-100,100-300" (default: the five reference layers)`)
	f.BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached collection exists")
	f.BoolVar(&opts.noRefs, "no-refs", false, "leave out the observational references")
	f.BoolVar(&opts.asJSON, "json", false, "write the collection as JSON")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&opts.diffRef, "diff", "", "print differences from this dataset instead of values")
	return cmd
}

func runProfiles(cmd *cobra.Command, a *app, opts *profilesOptions) error {
	cfg := a.cfg
	basin, err := domain.ParseBasin(cfg.Basin)
	if err != nil {
		return err
	}
	req := usecase.CollectionRequest{
		ProfileRequest: usecase.NewProfileRequest(basin, cfg.Years.Start, cfg.Years.End),
		Products:       cfg.Products,
		SkipReferences: opts.noRefs,
		Refresh:        opts.refresh,
	}
	if opts.layers != "" {
		layers, err := domain.ParseLayers(opts.layers)
		if err != nil {
			return err
		}
		req.Layers[domain.Temperature] = layers
		req.Layers[domain.Salinity] = layers
	}

	m := metrics.NewCollector("oraip")
	builder, cleanup, err := a.builder(m)
	if err != nil {
		return err
	}
	defer cleanup()

	coll, err := builder.Build(cmd.Context(), req)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(coll)
	}
	for _, q := range domain.Quantities() {
		if err := writeTable(w, coll, q, opts.diffRef); err != nil {
			return err
		}
	}
	return nil
}

// writeTable prints one row per layer and one column per dataset, with the
// data (or difference) range in the header.
func writeTable(w io.Writer, coll *domain.Collection, q domain.Quantity, ref string) error {
	values := make(map[string]*domain.ProfileVariable)
	var lo, hi domain.Value
	if ref != "" {
		diffs, err := coll.Differences(q, ref)
		if err != nil {
			return err
		}
		values = diffs
		if lo, hi, err = coll.DiffRange(q, ref); err != nil {
			return err
		}
	} else {
		for _, d := range coll.All() {
			values[d.Name] = d.Profile(q)
		}
		lo, hi = coll.DataRange(q)
	}

	title := q.Label()
	if ref != "" {
		title += " minus " + ref
	}
	fmt.Fprintf(w, "%s  %s %d-%d  range [%s, %s]\n", title, coll.Basin, coll.StartYear, coll.EndYear, lo, hi)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	datasets := coll.All()
	names := make([]string, len(datasets))
	for i, d := range datasets {
		names[i] = d.Name
	}
	fmt.Fprintf(tw, "layer\tmid\t%s\t\n", strings.Join(names, "\t"))
	layers := coll.MultiModel.Profile(q)
	mids := layers.Mids()
	for i, l := range layers.Layers {
		row := make([]string, len(datasets))
		for k, d := range datasets {
			row[k] = values[d.Name].Values[i].String()
		}
		fmt.Fprintf(tw, "%s\t%g\t%s\t\n", l, mids[i], strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
