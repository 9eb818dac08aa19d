package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/elevation"
	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
)

var (
	raiseBy       float64
	raiseRef      string
	raiseIDs      []int64
	raiseType     string
	raiseLayer    string
	raiseCRS      string
	raiseAttr     string
	raiseMethod   string
	raiseTable    string
	raiseTableCol string
)

var raiseCmd = &cobra.Command{
	Use:   "raise",
	Short: "Raise selected assets to a required floor level",
	Long:  "Lifts assets whose floor level is below the target, never lowering any. The target is an absolute level under the datum reference or an offset above a per-asset baseline under the geom and table references.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		set, err := st.LoadExposure(ctx)
		if err != nil {
			return err
		}

		opts := elevation.RaiseOptions{
			Selection:   exposure.Selection{ObjectIDs: raiseIDs, PrimaryType: raiseType},
			RaiseBy:     raiseBy,
			Reference:   elevation.Reference(raiseRef),
			Attr:        raiseAttr,
			Method:      join.Method(raiseMethod),
			MaxDistance: cfg.Join.MaxDistance,
		}
		if raiseLayer != "" {
			layer, err := loadLayer(raiseLayer, raiseCRS)
			if err != nil {
				return err
			}
			opts.Layer = layer
		}
		if raiseTable != "" {
			baselines, err := loadBaselines(raiseTable, raiseTableCol)
			if err != nil {
				return err
			}
			opts.Baselines = baselines
		}

		res, err := elevation.RaiseToLevel(set, opts)
		if err != nil {
			return err
		}
		if err := st.SaveExposure(ctx, set); err != nil {
			return err
		}

		zap.L().Info("raise saved",
			zap.Int("raised", res.Raised),
			zap.Int("no_reference", res.NoReference))
		return nil
	},
}

// loadBaselines reads a table reference into per-object-id baseline levels.
func loadBaselines(path, valueCol string) (map[int64]float64, error) {
	tbl, err := source.ReadTable(path)
	if err != nil {
		return nil, err
	}
	idIdx := tbl.Column(exposure.ColObjectID)
	if idIdx < 0 {
		return nil, eris.Errorf("baseline table %s has no %s column", path, exposure.ColObjectID)
	}
	valIdx := tbl.Column(valueCol)
	if valIdx < 0 {
		return nil, eris.Errorf("baseline table %s has no %q column", path, valueCol)
	}

	out := make(map[int64]float64, len(tbl.Rows))
	for _, row := range tbl.Rows {
		if idIdx >= len(row) || valIdx >= len(row) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[idIdx]), 10, 64)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[valIdx]), 64)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out, nil
}

func init() {
	raiseCmd.Flags().Float64Var(&raiseBy, "raise-by", 0, "target level (datum) or offset above the baseline (geom, table)")
	raiseCmd.Flags().StringVar(&raiseRef, "reference", string(elevation.Datum), "raise reference: datum, geom, or table")
	raiseCmd.Flags().Int64SliceVar(&raiseIDs, "ids", nil, "select assets by object id")
	raiseCmd.Flags().StringVar(&raiseType, "type", "", "select assets by primary object type")
	raiseCmd.Flags().StringVar(&raiseLayer, "layer", "", "baseline layer for the geom reference")
	raiseCmd.Flags().StringVar(&raiseCRS, "layer-crs", "", "CRS of the baseline layer")
	raiseCmd.Flags().StringVar(&raiseAttr, "attr", "", "baseline attribute on the layer")
	raiseCmd.Flags().StringVar(&raiseMethod, "method", string(join.Nearest), "join method for the baseline layer")
	raiseCmd.Flags().StringVar(&raiseTable, "table", "", "baseline table for the table reference, keyed by object_id")
	raiseCmd.Flags().StringVar(&raiseTableCol, "table-col", "level", "baseline value column in the table")
	_ = raiseCmd.MarkFlagRequired("raise-by")
	rootCmd.AddCommand(raiseCmd)
}
