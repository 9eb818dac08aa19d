package main

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/vulnerability"
)

var (
	exportExposure string
	exportCurves   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored exposure table and curve catalog to CSV",
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
		if err := writeCSV(set, exportExposure); err != nil {
			return err
		}

		if exportCurves != "" {
			reg, err := st.LoadCurves(ctx)
			if err != nil {
				return err
			}
			if err := writeCurves(reg, exportCurves); err != nil {
				return err
			}
		}

		zap.L().Info("export complete",
			zap.String("exposure", exportExposure),
			zap.Int("assets", set.Len()))
		return nil
	},
}

func writeCurves(reg *vulnerability.Registry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header, rows := reg.Rows()
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "write curve header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write curve row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush curves")
}

func init() {
	exportCmd.Flags().StringVar(&exportExposure, "exposure", "exposure.csv", "exposure table output path")
	exportCmd.Flags().StringVar(&exportCurves, "curves", "", "curve catalog output path")
	rootCmd.AddCommand(exportCmd)
}
