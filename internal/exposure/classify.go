package exposure

import (
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/join"
	"github.com/floodscope/exposure-cli/internal/source"
)

// ClassifyOptions configure occupancy classification from a land-use layer.
type ClassifyOptions struct {
	// PrimaryAttr names the reference attribute for primary_object_type.
	PrimaryAttr string
	// SecondaryAttr names the attribute for secondary_object_type; empty
	// reuses PrimaryAttr.
	SecondaryAttr string
	Method        join.Method
	MaxDistance   float64
	// KeepUnclassified reclassifies assets without a match as residential
	// instead of dropping them.
	KeepUnclassified bool
}

// ReclassifiedType is assigned to unmatched assets when they are kept.
const ReclassifiedType = "residential"

// Classify assigns primary and secondary object types from an occupancy
// layer. Assets with no match are either reclassified as residential or
// removed, per options; either way the outcome is logged.
func (s *Set) Classify(occ *source.FeatureSet, opts ClassifyOptions) error {
	if opts.SecondaryAttr == "" {
		opts.SecondaryAttr = opts.PrimaryAttr
	}
	if opts.Method == "" {
		opts.Method = join.Intersection
	}

	primaries := s.joinPrimaries()
	jopts := join.Options{Method: opts.Method, Attr: opts.PrimaryAttr, MaxDistance: opts.MaxDistance}
	primary, err := join.Attribute(primaries, s.CRS, occ, jopts)
	if err != nil {
		return err
	}

	secondary := Column(primary)
	if opts.SecondaryAttr != opts.PrimaryAttr {
		jopts.Attr = opts.SecondaryAttr
		secondary, err = join.Attribute(primaries, s.CRS, occ, jopts)
		if err != nil {
			return err
		}
	}

	s.FoldString(primary, func(a *Asset, v string) { a.PrimaryType = v })
	s.FoldString(secondary, func(a *Asset, v string) { a.SecondaryType = v })

	var unmatched int
	matched := s.Len()
	for _, a := range s.assets {
		if a.PrimaryType != "" {
			continue
		}
		unmatched++
		matched--
		if opts.KeepUnclassified {
			a.PrimaryType = ReclassifiedType
			if a.SecondaryType == "" {
				a.SecondaryType = ReclassifiedType
			}
		}
	}
	if unmatched > 0 {
		if opts.KeepUnclassified {
			zap.L().Warn("assets without an occupancy match reclassified",
				zap.Int("count", unmatched),
				zap.String("type", ReclassifiedType))
		} else {
			s.dropUnclassified()
			zap.L().Warn("assets without an occupancy match removed",
				zap.Int("count", unmatched))
		}
	}

	s.MarkColumn(ColPrimaryType, ColSecondaryType)
	zap.L().Info("occupancy assigned",
		zap.String("layer", occ.Name),
		zap.Int("matched", matched))
	return nil
}

// joinPrimaries adapts the set to the primary side of a spatial join.
func (s *Set) joinPrimaries() []join.Primary {
	out := make([]join.Primary, len(s.assets))
	for i, a := range s.assets {
		out[i] = join.Primary{ID: a.ObjectID, Geom: a.Geom}
	}
	return out
}

func (s *Set) dropUnclassified() {
	kept := s.assets[:0]
	for _, a := range s.assets {
		if a.PrimaryType == "" {
			delete(s.byID, a.ObjectID)
			continue
		}
		kept = append(kept, a)
	}
	s.assets = kept
}
