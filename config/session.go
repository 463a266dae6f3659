package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/utils"
)

// Session is the on-disk shape of a calibration session (YAML).
type Session struct {
	AsOf   string      `yaml:"as_of"`
	Curves []CurveSpec `yaml:"curves"`
}

// CurveSpec describes one curve to calibrate.
type CurveSpec struct {
	Name          string `yaml:"name"`
	Mode          string `yaml:"mode"`
	Interpolation string `yaml:"interpolation"`
	Entity        string `yaml:"entity"`
	Index         string `yaml:"index"`
	// Discount names an exogenous discount curve calibrated earlier in the session.
	Discount string `yaml:"discount"`
	// Stage orders dependent curves; curves in one stage calibrate concurrently.
	Stage    int          `yaml:"stage"`
	Strategy StrategySpec `yaml:"strategy"`
}

type StrategySpec struct {
	Name        string            `yaml:"name"`
	Conventions map[string]string `yaml:"conventions"`
	// Unit applies to quotes without a suffix: "decimal" (default), "percent" or "bp".
	Unit        string           `yaml:"unit"`
	Instruments []InstrumentSpec `yaml:"instruments"`
}

type InstrumentSpec struct {
	Tenor string `yaml:"tenor"`
	Rate  Quote  `yaml:"rate"`
	Type  string `yaml:"type"`
}

// Quote is a rate as written in the session file. The literal is kept
// exactly; "5.25%" and "525bp" carry their own unit.
type Quote struct {
	Value decimal.Decimal
	Unit  string
}

func (q *Quote) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: rate must be a scalar", node.Line)
	}
	raw := strings.TrimSpace(node.Value)
	unit := ""
	switch {
	case strings.HasSuffix(raw, "%"):
		unit, raw = "percent", strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	case strings.HasSuffix(strings.ToLower(raw), "bp"):
		unit, raw = "bp", strings.TrimSpace(raw[:len(raw)-2])
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("line %d: invalid rate %q: %w", node.Line, node.Value, err)
	}
	q.Value, q.Unit = d, unit
	return nil
}

var (
	hundred     = decimal.NewFromInt(100)
	tenThousand = decimal.NewFromInt(10000)
)

// Decimal converts the quote to a decimal rate, using defaultUnit when the
// literal had no suffix.
func (q Quote) Decimal(defaultUnit string) (float64, error) {
	unit := q.Unit
	if unit == "" {
		unit = strings.ToLower(strings.TrimSpace(defaultUnit))
	}
	var d decimal.Decimal
	switch unit {
	case "", "decimal":
		d = q.Value
	case "percent", "pct":
		d = q.Value.Div(hundred)
	case "bp", "bps":
		d = q.Value.Div(tenThousand)
	default:
		return 0, fmt.Errorf("unknown quote unit %q", unit)
	}
	return d.InexactFloat64(), nil
}

// LoadSession reads and validates a session file.
func LoadSession(path string) (*Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadSession: %w", err)
	}
	return ParseSession(raw)
}

// ParseSession decodes session YAML. Unknown fields are rejected.
func ParseSession(raw []byte) (*Session, error) {
	var s Session
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("config.ParseSession: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the session shape. Curve definitions are fully validated
// when built.
func (s *Session) Validate() error {
	if s.AsOf == "" {
		return errors.New("session: as_of is required")
	}
	if _, err := s.AsOfDate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if len(s.Curves) == 0 {
		return errors.New("session: no curves")
	}
	seen := make(map[string]bool, len(s.Curves))
	for i, c := range s.Curves {
		if c.Name == "" {
			return fmt.Errorf("session: curve %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("session: curve %q defined twice", c.Name)
		}
		seen[c.Name] = true
		if c.Stage < 0 {
			return fmt.Errorf("session: curve %q has negative stage", c.Name)
		}
	}
	return nil
}

func (s *Session) AsOfDate() (time.Time, error) {
	return utils.ParseDate(s.AsOf)
}

// Stages groups curves by stage, in ascending stage order.
func (s *Session) Stages() [][]CurveSpec {
	maxStage := 0
	for _, c := range s.Curves {
		if c.Stage > maxStage {
			maxStage = c.Stage
		}
	}
	buckets := make([][]CurveSpec, maxStage+1)
	for _, c := range s.Curves {
		buckets[c.Stage] = append(buckets[c.Stage], c)
	}
	out := buckets[:0]
	for _, b := range buckets {
		if len(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Target builds the calibration target. Interpolation defaults to LogLinear
// and entity to Discount.
func (c CurveSpec) Target() (*definition.Target, error) {
	interp := curve.LogLinear
	if c.Interpolation != "" {
		v, err := curve.ParseInterpolation(c.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("curve %q: %w", c.Name, err)
		}
		interp = v
	}
	entity := curve.Discount
	if c.Entity != "" {
		v, err := curve.ParseEntityType(c.Entity)
		if err != nil {
			return nil, fmt.Errorf("curve %q: %w", c.Name, err)
		}
		entity = v
	}
	var index *market.Index
	if c.Index != "" {
		idx, err := market.Lookup(c.Index)
		if err != nil {
			return nil, fmt.Errorf("curve %q: %w", c.Name, err)
		}
		index = &idx
	}
	return definition.NewTarget(c.Name, interp, entity, index)
}

// BuildStrategy builds the instrument strategy.
func (c CurveSpec) BuildStrategy() (*definition.Strategy, error) {
	instruments := make([]definition.Instrument, 0, len(c.Strategy.Instruments))
	for i, in := range c.Strategy.Instruments {
		it, err := definition.ParseInstrumentType(in.Type)
		if err != nil {
			return nil, fmt.Errorf("curve %q instrument %d: %w", c.Name, i, err)
		}
		rate, err := in.Rate.Decimal(c.Strategy.Unit)
		if err != nil {
			return nil, fmt.Errorf("curve %q instrument %d: %w", c.Name, i, err)
		}
		instruments = append(instruments, definition.Instrument{Tenor: in.Tenor, Rate: rate, Type: it})
	}
	conventions := make(map[definition.ConventionKey]string, len(c.Strategy.Conventions))
	for k, v := range c.Strategy.Conventions {
		conventions[definition.ConventionKey(k)] = v
	}
	name := c.Strategy.Name
	if name == "" {
		name = c.Name
	}
	return definition.NewStrategy(name, instruments, conventions)
}
