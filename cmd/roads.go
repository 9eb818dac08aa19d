package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/elevation"
	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/roads"
)

var (
	roadsLayer     string
	roadsCRS       string
	roadsLanesAttr string
	roadsTypeAttr  string
	roadsConstant  float64
	roadsOut       string
)

var roadsCmd = &cobra.Command{
	Use:   "roads",
	Short: "Build a road exposure table from a line layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		unit, err := cfg.Model.UnitSystem()
		if err != nil {
			return err
		}

		layer, err := loadLayer(roadsLayer, roadsCRS)
		if err != nil {
			return err
		}

		set, err := exposure.FromFeatures(layer, exposure.BuildOptions{
			IDAttr:   cfg.Sources.IDAttr,
			NameAttr: cfg.Sources.NameAttr,
		})
		if err != nil {
			return err
		}

		// FromFeatures keeps feature order, so attributes align by index.
		for i, a := range set.Assets() {
			f := layer.Features[i]
			if v, ok := f.Float(roadsLanesAttr); ok {
				a.Lanes = int(v)
			}
			a.PrimaryType = "road"
			if roadsTypeAttr != "" {
				if v, ok := f.String(roadsTypeAttr); ok && v != "" {
					a.PrimaryType = v
				}
			}
		}
		set.MarkColumn(exposure.ColPrimaryType)

		// Road segments sit at grade.
		elevation.ApplyConstant(set, elevation.GroundFloorHeight, 0)

		if err := roads.ComputeLengths(set, unit); err != nil {
			return err
		}

		opts := roads.Options{
			ModelUnit:    unit,
			MetricSource: cfg.Roads.MetricSource,
		}
		if cmd.Flags().Changed("constant") {
			opts.Constant = &roadsConstant
		} else if len(cfg.Roads.LaneCosts) > 0 {
			opts.LaneCosts = make(map[int]float64, len(cfg.Roads.LaneCosts))
			for k, v := range cfg.Roads.LaneCosts {
				lanes, err := strconv.Atoi(k)
				if err != nil {
					return eris.Wrapf(err, "roads.lane_costs key %q", k)
				}
				opts.LaneCosts[lanes] = v
			}
		}
		if err := roads.AssignDamage(set, opts); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveExposure(ctx, set); err != nil {
			return err
		}
		if roadsOut != "" {
			if err := writeCSV(set, roadsOut); err != nil {
				return err
			}
		}

		zap.L().Info("road exposure built",
			zap.Int("segments", set.Len()),
			zap.String("unit", string(unit)))
		return nil
	},
}

func init() {
	roadsCmd.Flags().StringVar(&roadsLayer, "layer", "", "road line layer (shapefile or GeoJSON)")
	roadsCmd.Flags().StringVar(&roadsCRS, "crs", "", "CRS of the road layer (e.g. EPSG:4326)")
	roadsCmd.Flags().StringVar(&roadsLanesAttr, "lanes-attr", "lanes", "attribute carrying the lane count")
	roadsCmd.Flags().StringVar(&roadsTypeAttr, "type-attr", "", "attribute carrying the road type")
	roadsCmd.Flags().Float64Var(&roadsConstant, "constant", 0, "assign one damage value to every segment instead of the lane cost table")
	roadsCmd.Flags().StringVar(&roadsOut, "out", "", "also write the road table to a CSV file")
	_ = roadsCmd.MarkFlagRequired("layer")
	rootCmd.AddCommand(roadsCmd)
}
