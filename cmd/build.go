package main

import (
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/floodscope/exposure-cli/internal/damage"
	"github.com/floodscope/exposure-cli/internal/elevation"
	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/pipeline"
	"github.com/floodscope/exposure-cli/internal/raster"
	"github.com/floodscope/exposure-cli/internal/source"
	"github.com/floodscope/exposure-cli/internal/vulnerability"
)

var (
	buildOut           string
	buildCentroids     bool
	buildFootprintsOut string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the exposure table from the configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := loadInputs()
		if err != nil {
			return err
		}

		set, err := exposure.FromFeatures(in.assets, exposure.BuildOptions{
			IDAttr:   cfg.Sources.IDAttr,
			NameAttr: cfg.Sources.NameAttr,
		})
		if err != nil {
			return err
		}

		steps, err := buildSteps(in)
		if err != nil {
			return err
		}
		if err := pipeline.Run(set, steps); err != nil {
			return err
		}

		if buildCentroids {
			footprints := set.ConvertToCentroids()
			if buildFootprintsOut != "" && len(footprints) > 0 {
				if err := writeFootprints(set, footprints, buildFootprintsOut); err != nil {
					return err
				}
			}
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveExposure(ctx, set); err != nil {
			return err
		}
		if in.curves != nil {
			if err := st.SaveCurves(ctx, in.curves); err != nil {
				return err
			}
		}
		if buildOut != "" {
			if err := writeCSV(set, buildOut); err != nil {
				return err
			}
		}

		zap.L().Info("exposure build complete",
			zap.Int("assets", set.Len()),
			zap.Strings("damage_types", set.DamageTypes()))
		return nil
	},
}

// inputs holds everything a build reads, loaded up front so the pipeline
// itself stays free of I/O.
type inputs struct {
	assets    *source.FeatureSet
	occupancy *source.FeatureSet
	floor     *source.FeatureSet
	dem       *raster.Grid
	curves    *vulnerability.Registry
	linkRows  []vulnerability.LinkRow
}

// loadInputs reads the configured sources, independent files in parallel.
func loadInputs() (*inputs, error) {
	if cfg.Sources.Assets == "" {
		return nil, eris.New("no asset layer configured (sources.assets)")
	}

	in := &inputs{}
	var g errgroup.Group

	g.Go(func() error {
		fs, err := loadLayer(cfg.Sources.Assets, cfg.Sources.AssetCRS)
		in.assets = fs
		return err
	})
	if cfg.Sources.Occupancy != "" {
		g.Go(func() error {
			fs, err := loadLayer(cfg.Sources.Occupancy, cfg.Sources.OccCRS)
			in.occupancy = fs
			return err
		})
	}
	if cfg.Sources.FloorLayer != "" {
		g.Go(func() error {
			fs, err := loadLayer(cfg.Sources.FloorLayer, "")
			in.floor = fs
			return err
		})
	}
	if cfg.Sources.DEM != "" {
		g.Go(func() error {
			crs, err := geoCRS(cfg.Sources.DEMCRS)
			if err != nil {
				return err
			}
			grid, err := source.ReadASCIIGrid(cfg.Sources.DEM, crs)
			in.dem = grid
			return err
		})
	}
	if cfg.Sources.Curves != "" {
		g.Go(func() error {
			reg, err := vulnerability.LoadCurves(cfg.Sources.Curves)
			in.curves = reg
			return err
		})
	}
	if cfg.Sources.LinkTable != "" {
		g.Go(func() error {
			rows, err := vulnerability.LoadLinkTable(cfg.Sources.LinkTable)
			in.linkRows = rows
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// buildSteps assembles the fixed pipeline order: classification, damage
// resolution, elevation assignment, vulnerability linking.
func buildSteps(in *inputs) ([]pipeline.Step, error) {
	var steps []pipeline.Step

	if in.occupancy != nil {
		steps = append(steps, pipeline.Step{
			Name: "classify",
			Run: func(s *exposure.Set) error {
				return s.Classify(in.occupancy, exposure.ClassifyOptions{
					PrimaryAttr:      cfg.Sources.OccAttr,
					Method:           join.Intersection,
					MaxDistance:      cfg.Join.MaxDistance,
					KeepUnclassified: cfg.Model.KeepUnclassified,
				})
			},
		})
	}

	src, err := damageSource()
	if err != nil {
		return nil, err
	}
	if src != nil {
		var dmgSteps []damage.Step
		for _, dt := range cfg.Model.DamageTypes {
			dmgSteps = append(dmgSteps, damage.Step{DamageType: dt, Source: src})
		}
		steps = append(steps, pipeline.Step{
			Name:     "damage",
			Requires: []string{exposure.ColPrimaryType},
			Run:      func(s *exposure.Set) error { return damage.Assign(s, dmgSteps) },
		})
	}

	if cfg.Damage.UpdateTable != "" {
		tbl, err := source.ReadTable(cfg.Damage.UpdateTable)
		if err != nil {
			return nil, err
		}
		steps = append(steps, pipeline.Step{
			Name: "update-damage",
			Run: func(s *exposure.Set) error {
				_, err := damage.UpdateFromTable(s, tbl, cfg.Damage.UpdateIDColumn)
				return err
			},
		})
	}

	steps = append(steps, pipeline.Step{
		Name: "elevation",
		Run: func(s *exposure.Set) error {
			if in.dem != nil {
				if err := elevation.ApplyDEM(s, in.dem); err != nil {
					return err
				}
			} else {
				elevation.ApplyDefault(s, elevation.GroundElevation)
			}
			if in.floor != nil {
				elevation.ApplyConstant(s, elevation.GroundFloorHeight, 0)
				return elevation.ApplyLayer(s, elevation.GroundFloorHeight,
					in.floor, cfg.Sources.FloorAttr, join.Nearest, cfg.Join.MaxDistance)
			}
			elevation.ApplyDefault(s, elevation.GroundFloorHeight)
			return nil
		},
	})

	if len(in.linkRows) > 0 {
		steps = append(steps, pipeline.Step{
			Name:     "link",
			Requires: []string{exposure.ColPrimaryType},
			Run:      func(s *exposure.Set) error { return vulnerability.Link(s, in.linkRows) },
		})
	}

	for _, agg := range cfg.Aggregation.Layers {
		agg := agg
		layer, err := loadLayer(agg.Path, agg.CRS)
		if err != nil {
			return nil, err
		}
		steps = append(steps, pipeline.Step{
			Name: "aggregate-" + agg.Name,
			Run: func(s *exposure.Set) error {
				return s.ApplyAggregationArea(agg.Name, layer, agg.Attr)
			},
		})
	}

	return steps, nil
}

// damageSource builds the configured damage value source. An empty source
// name leaves the damage columns null.
func damageSource() (damage.Source, error) {
	switch cfg.Damage.Source {
	case "":
		return nil, nil
	case "constant":
		return damage.Constant{Value: cfg.Damage.Constant}, nil
	case "jrc":
		return damage.LoadJRC(cfg.Damage.Table, cfg.Damage.Country, cfg.Damage.ToUSD)
	case "hazus":
		return damage.LoadHAZUS(cfg.Damage.Table)
	case "translation":
		return damage.LoadTranslation(cfg.Damage.Table, cfg.Damage.TypeColumn, cfg.Damage.ValueColumn)
	case "file":
		layer, err := loadLayer(cfg.Damage.File, cfg.Damage.FileCRS)
		if err != nil {
			return nil, err
		}
		return damage.FileJoin{
			Layer:       layer,
			Attr:        cfg.Damage.FileAttr,
			Method:      join.Method(cfg.Damage.Method),
			MaxDistance: cfg.Join.MaxDistance,
		}, nil
	default:
		return nil, eris.Errorf("unknown damage source %q", cfg.Damage.Source)
	}
}

// writeFootprints keeps the pre-conversion polygon footprints as a companion
// layer next to the centroid exposure set.
func writeFootprints(set *exposure.Set, footprints map[int64]geom.T, path string) error {
	fs := &source.FeatureSet{Name: "footprints", CRS: set.CRS}
	for _, a := range set.Assets() {
		g, ok := footprints[a.ObjectID]
		if !ok {
			continue
		}
		fs.Features = append(fs.Features, source.Feature{
			Geom:  g,
			Attrs: map[string]string{exposure.ColObjectID: strconv.FormatInt(a.ObjectID, 10)},
		})
	}
	return source.WriteGeoJSON(path, fs)
}

func writeCSV(set *exposure.Set, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	return set.WriteCSV(f)
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "", "also write the exposure table to a CSV file")
	buildCmd.Flags().BoolVar(&buildCentroids, "centroids", false, "convert polygon footprints to centroid points after the build")
	buildCmd.Flags().StringVar(&buildFootprintsOut, "footprints-out", "", "write converted footprints to a GeoJSON companion layer")
	rootCmd.AddCommand(buildCmd)
}
