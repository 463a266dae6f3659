package definition

import (
	"strings"

	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/market"
)

// Target names the curve to build and how it is represented.
type Target struct {
	curveName     string
	interpolation curve.Interpolation
	entity        curve.EntityType
	index         *market.Index
}

// NewTarget validates and builds a calibration target. index may be nil.
func NewTarget(curveName string, interp curve.Interpolation, entity curve.EntityType, index *market.Index) (*Target, error) {
	if strings.TrimSpace(curveName) == "" {
		return nil, configError("", "", "curve name is empty")
	}
	if !interp.Valid() {
		return nil, configError("", "", "unknown interpolation %q", interp)
	}
	if !entity.Valid() {
		return nil, configError("", "", "unknown entity type %q", entity)
	}
	t := &Target{curveName: curveName, interpolation: interp, entity: entity}
	if index != nil {
		idx := *index
		t.index = &idx
	}
	return t, nil
}

func (t *Target) CurveName() string                  { return t.curveName }
func (t *Target) Interpolation() curve.Interpolation { return t.interpolation }
func (t *Target) Entity() curve.EntityType           { return t.entity }

// UnderlyingIndex returns the index the curve projects, if one was given.
func (t *Target) UnderlyingIndex() (market.Index, bool) {
	if t.index == nil {
		return market.Index{}, false
	}
	return *t.index, true
}
