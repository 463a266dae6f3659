package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/curvekit/calibration"
	"github.com/meenmo/curvekit/config"
	"github.com/meenmo/curvekit/logging"
	"github.com/meenmo/curvekit/registry"
	"github.com/meenmo/curvekit/utils"
	"github.com/meenmo/curvekit/valuation"
)

// SessionOutput defines the JSON output schema.
type SessionOutput struct {
	SessionID string        `json:"session_id,omitempty"`
	AsOf      string        `json:"as_of,omitempty"`
	Curves    []CurveOutput `json:"curves,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type CurveOutput struct {
	Name          string             `json:"name"`
	Mode          string             `json:"mode"`
	Stage         int                `json:"stage"`
	ReferenceDate string             `json:"reference_date"`
	DayCount      string             `json:"day_count"`
	Interpolation string             `json:"interpolation"`
	Index         string             `json:"index,omitempty"`
	Discount      string             `json:"discount,omitempty"`
	Pillars       []PillarOutput     `json:"pillars"`
	Instruments   []InstrumentOutput `json:"instruments"`
	Loss          float64            `json:"loss"`
	Iterations    int                `json:"iterations"`
	Gradient      []float64          `json:"gradient,omitempty"`
}

type PillarOutput struct {
	Date           string  `json:"date"`
	Time           float64 `json:"t"`
	DiscountFactor float64 `json:"discount_factor"`
	ZeroRatePct    float64 `json:"zero_rate_pct"`
}

type InstrumentOutput struct {
	Tenor      string  `json:"tenor"`
	Type       string  `json:"type"`
	QuotePct   float64 `json:"quote_pct"`
	ParRatePct float64 `json:"par_rate_pct"`
	Residual   float64 `json:"residual"`
}

func newCalibrateCmd(root *rootOptions) *cobra.Command {
	var sessionPath string
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Calibrate every curve of a session and print them as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runCalibrate(root, sessionPath)
			if err != nil {
				out.Error = err.Error()
			}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "", "session YAML file")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func runCalibrate(root *rootOptions, sessionPath string) (SessionOutput, error) {
	cfg, logger, err := setup(root)
	if err != nil {
		return SessionOutput{}, err
	}
	defer func() { _ = logger.Sync() }()

	session, err := config.LoadSession(sessionPath)
	if err != nil {
		return SessionOutput{}, err
	}
	asOf, err := session.AsOfDate()
	if err != nil {
		return SessionOutput{}, err
	}

	reg := registry.New(logger)
	defer reg.Close()
	out := SessionOutput{SessionID: reg.ID().String(), AsOf: asOf.Format(utils.DateLayout)}

	specs := session.Stages()
	stages, err := buildStages(specs)
	if err != nil {
		return out, err
	}

	cal := calibration.New(reg, asOf, calibration.WithConfig(*cfg), calibration.WithLogger(logger))
	start := time.Now()
	results, err := calibration.RunStages(cal, stages)
	for s, stage := range results {
		for i, res := range stage {
			if res == nil {
				continue
			}
			out.Curves = append(out.Curves, curveOutput(specs[s][i], stages[s][i], res))
		}
	}
	logger.Info("session finished",
		zap.Int("curves", len(out.Curves)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return out, err
}

func setup(root *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if root.logLevel != "" {
		level = root.logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func buildStages(specs [][]config.CurveSpec) ([][]calibration.Request, error) {
	stages := make([][]calibration.Request, len(specs))
	for s, stage := range specs {
		for _, spec := range stage {
			req, err := buildRequest(spec)
			if err != nil {
				return nil, err
			}
			stages[s] = append(stages[s], req)
		}
	}
	return stages, nil
}

func buildRequest(spec config.CurveSpec) (calibration.Request, error) {
	mode, err := calibration.ParseMode(spec.Mode)
	if err != nil {
		return calibration.Request{}, fmt.Errorf("curve %q: %w", spec.Name, err)
	}
	target, err := spec.Target()
	if err != nil {
		return calibration.Request{}, err
	}
	strategy, err := spec.BuildStrategy()
	if err != nil {
		return calibration.Request{}, fmt.Errorf("curve %q: %w", spec.Name, err)
	}
	return calibration.Request{
		Target:            target,
		Strategy:          strategy,
		Mode:              mode,
		ExogenousDiscount: spec.Discount,
	}, nil
}

func curveOutput(spec config.CurveSpec, req calibration.Request, res *calibration.Result) CurveOutput {
	c := res.Curve
	out := CurveOutput{
		Name:          c.Name(),
		Mode:          req.Mode.String(),
		Stage:         spec.Stage,
		ReferenceDate: c.Reference().Format(utils.DateLayout),
		DayCount:      string(c.DayCount()),
		Interpolation: string(c.Interpolation()),
		Discount:      req.ExogenousDiscount,
		Loss:          res.Loss,
		Iterations:    res.Iterations,
		Gradient:      res.Gradient,
	}
	if idx, ok := c.Index(); ok {
		out.Index = idx.Name
	}

	dates := c.PillarDates()
	for k, t := range c.Pillars() {
		p := PillarOutput{
			Time:           utils.RoundTo(t, 10),
			DiscountFactor: c.DiscountAt(t),
			ZeroRatePct:    utils.RoundTo(c.ZeroRate(t)*100, 10),
		}
		if dates != nil {
			p.Date = dates[k].Format(utils.DateLayout)
		}
		out.Pillars = append(out.Pillars, p)
	}

	for i, h := range res.Helpers {
		out.Instruments = append(out.Instruments, InstrumentOutput{
			Tenor:      h.Tenor,
			Type:       string(h.Type),
			QuotePct:   utils.RoundTo(h.Quote*100, 10),
			ParRatePct: utils.RoundTo(valuation.ParRate(h, c, h.Discount)*100, 10),
			Residual:   res.Residuals[i],
		})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
