// Package pipeline runs exposure build steps in their required order. Later
// steps read columns earlier steps produce, so every step declares the
// columns it needs and fails fast, by name, when they are missing.
package pipeline

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/floodscope/exposure-cli/internal/exposure"
)

// Step is one unit of work over the exposure set.
type Step struct {
	Name string
	// Requires lists the columns the step reads. Checked before Run.
	Requires []string
	Run      func(s *exposure.Set) error
}

// Run executes steps in order against one exposure set. Processing is
// synchronous and in-memory; a failing step aborts the rest.
func Run(set *exposure.Set, steps []Step) error {
	for _, st := range steps {
		if err := set.RequireColumns(st.Requires...); err != nil {
			return eris.Wrapf(err, "pipeline: step %s", st.Name)
		}

		start := time.Now()
		if err := st.Run(set); err != nil {
			return eris.Wrapf(err, "pipeline: step %s", st.Name)
		}
		zap.L().Info("pipeline step done",
			zap.String("step", st.Name),
			zap.Duration("took", time.Since(start)),
			zap.Int("assets", set.Len()))
	}
	return nil
}
