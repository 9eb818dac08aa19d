package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/vulnerability"
)

var (
	fpDepth   float64
	fpIDs     []int64
	fpType    string
	fpAggName string
	fpAggVal  string
)

var floodproofCmd = &cobra.Command{
	Use:   "floodproof",
	Short: "Floodproof selected assets up to a depth",
	Long:  "Registers truncated variants of the vulnerability curves the selected assets use and repoints only those assets to them.",
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
		reg, err := st.LoadCurves(ctx)
		if err != nil {
			return err
		}

		sel := exposure.Selection{ObjectIDs: fpIDs, PrimaryType: fpType}
		sel.Aggregation.Name = fpAggName
		sel.Aggregation.Value = fpAggVal

		if err := vulnerability.Floodproof(set, reg, sel, cfg.Model.DamageTypes, fpDepth); err != nil {
			return err
		}

		if err := st.SaveExposure(ctx, set); err != nil {
			return err
		}
		if err := st.SaveCurves(ctx, reg); err != nil {
			return err
		}

		zap.L().Info("floodproofing saved", zap.Float64("depth", fpDepth))
		return nil
	},
}

func init() {
	floodproofCmd.Flags().Float64Var(&fpDepth, "depth", 0, "floodproofing depth in model units")
	floodproofCmd.Flags().Int64SliceVar(&fpIDs, "ids", nil, "select assets by object id")
	floodproofCmd.Flags().StringVar(&fpType, "type", "", "select assets by primary object type")
	floodproofCmd.Flags().StringVar(&fpAggName, "agg-label", "", "select assets by aggregation label name")
	floodproofCmd.Flags().StringVar(&fpAggVal, "agg-value", "", "select assets by aggregation label value")
	_ = floodproofCmd.MarkFlagRequired("depth")
	rootCmd.AddCommand(floodproofCmd)
}
