package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mlipens/internal/calibrate"
	"mlipens/internal/common/fsutil"
	"mlipens/internal/config"
	"mlipens/internal/dataset"
	"mlipens/internal/logging"
	"mlipens/pkg/types"
)

func newCalibrateCmd() *cobra.Command {
	var (
		kind   string
		lambda float64
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Fit a linear correction of ensemble energies against trajectory ground truth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalibrate(cmd, kind, lambda)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(calibrate.Linear), "solver: linear or ridge")
	cmd.Flags().Float64Var(&lambda, "lambda", calibrate.DefaultLambda, "ridge penalty")
	return cmd
}

func runCalibrate(cmd *cobra.Command, kind string, lambda float64) error {
	logger := logging.Setup(verbose)
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", cfgFile, err)
	}
	cfg.Normalize()
	if cfg.TrajFile == "" {
		return fmt.Errorf("calibrate needs traj_file with ground-truth energies")
	}

	ds, err := dataset.LoadAndSplit(cfg.TrajFile, cfg.TestSize, cfg.Seed)
	if err != nil {
		return err
	}
	logger.Info().Int("train", len(ds.Train)).Int("test", len(ds.Test)).Msg("trajectory split")

	mgr, err := buildManager(&cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	results := mgr.PredictBatch(cmd.Context(), ds.Train, types.PredictEnergy)
	model, err := calibrate.Fit(results, mgr.Models(), calibrate.Kind(kind), lambda)
	if err != nil {
		return err
	}
	logger.Info().
		Float64("rmse", model.RMSE).
		Float64("r_squared", model.RSquared).
		Int("rows", model.Rows).
		Int("skipped", model.Skipped).
		Msg("calibration fitted")

	path := filepath.Join(cfg.OutputDir, "calibration.json")
	if err := fsutil.EnsureDir(cfg.OutputDir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return err
	}
	logger.Info().Str("path", path).Msg("calibration written")
	return nil
}
