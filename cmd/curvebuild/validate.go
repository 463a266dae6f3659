package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meenmo/curvekit/config"
)

type ValidateOutput struct {
	Valid  bool   `json:"valid"`
	Curves int    `json:"curves,omitempty"`
	Stages int    `json:"stages,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	var sessionPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a session file and solver config without calibrating",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runValidate(root, sessionPath)
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

func runValidate(root *rootOptions, sessionPath string) (ValidateOutput, error) {
	if _, err := config.Load(root.configPath); err != nil {
		return ValidateOutput{}, err
	}
	session, err := config.LoadSession(sessionPath)
	if err != nil {
		return ValidateOutput{}, err
	}
	specs := session.Stages()
	if _, err := buildStages(specs); err != nil {
		return ValidateOutput{}, err
	}
	if err := checkDependencies(specs); err != nil {
		return ValidateOutput{}, err
	}
	return ValidateOutput{Valid: true, Curves: len(session.Curves), Stages: len(specs)}, nil
}

// checkDependencies reports discount curves that are not built in an earlier stage.
func checkDependencies(specs [][]config.CurveSpec) error {
	built := map[string]bool{}
	for _, stage := range specs {
		for _, spec := range stage {
			if spec.Discount != "" && !built[spec.Discount] {
				return fmt.Errorf("curve %q discounts on %q, which no earlier stage builds", spec.Name, spec.Discount)
			}
		}
		for _, spec := range stage {
			built[spec.Name] = true
		}
	}
	return nil
}
