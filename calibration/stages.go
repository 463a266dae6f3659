package calibration

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunStages calibrates stages in order. Requests within a stage must not
// depend on each other and run concurrently; a later stage may read any
// curve linked by an earlier one. The first error stops before the next
// stage starts. Results mirror the shape of stages; on error they end with
// the failing stage, where curves that did calibrate (and were linked) keep
// their result and failed ones are nil.
//
// The order is the caller's: no dependency inference or cycle detection
// takes place.
func RunStages(cal *Calibrator, stages [][]Request) ([][]*Result, error) {
	out := make([][]*Result, len(stages))
	for s, stage := range stages {
		results := make([]*Result, len(stage))
		var g errgroup.Group
		for i, req := range stage {
			i, req := i, req
			g.Go(func() error {
				res, err := cal.Calibrate(req)
				if err != nil {
					return fmt.Errorf("stage %d: %w", s, err)
				}
				results[i] = res
				return nil
			})
		}
		err := g.Wait()
		out[s] = results
		if err != nil {
			return out[:s+1], err
		}
	}
	return out, nil
}
