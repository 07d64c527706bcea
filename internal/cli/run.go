package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mlipens/internal/calc"
	"mlipens/internal/config"
	"mlipens/internal/dataset"
	"mlipens/internal/ensemble"
	"mlipens/internal/logging"
	"mlipens/internal/output"
	"mlipens/internal/registry"
	"mlipens/internal/structure"
	"mlipens/pkg/types"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Predict energies/forces for a structure directory or trajectory test split",
		RunE:  runRun,
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	logger := logging.Setup(verbose)
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", cfgFile, err)
	}
	cfg.Normalize()

	records, err := loadRecords(&cfg)
	if err != nil {
		return err
	}
	logger.Info().Int("structures", len(records)).Msg("loaded input structures")

	mgr, err := buildManager(&cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()
	logger.Info().Strs("models", mgr.Models()).Msg("ensemble configured")

	results := mgr.PredictBatch(cmd.Context(), records, types.PredictionType(cfg.PredictionType))

	csvPath := filepath.Join(cfg.OutputDir, "predictions.csv")
	if err := output.WriteCSV(csvPath, results, mgr.Models()); err != nil {
		return err
	}
	jsonPath := filepath.Join(cfg.OutputDir, "predictions.json")
	if err := output.WriteJSON(jsonPath, results, mgr.Models()); err != nil {
		return err
	}
	logger.Info().Str("csv", csvPath).Str("json", jsonPath).Msg("predictions written")
	return nil
}

func loadRecords(cfg *config.Config) ([]*structure.Record, error) {
	switch {
	case cfg.TrajFile != "":
		ds, err := dataset.LoadAndSplit(cfg.TrajFile, cfg.TestSize, cfg.Seed)
		if err != nil {
			return nil, err
		}
		return ds.Test, nil
	case cfg.InputDir != "":
		return dataset.ParseDir(cfg.InputDir, nil)
	default:
		return nil, fmt.Errorf("config needs input_dir or traj_file")
	}
}

// buildManager constructs the ensemble under a quiet scope: model loads are
// when external runtimes dump banner noise, and subprocess runners spawned
// inside the scope inherit the silenced stderr. The zerolog console writer
// holds its own handle on the real stderr, so our logging is unaffected.
func buildManager(cfg *config.Config) (*ensemble.Manager, error) {
	models, err := resolveArtifacts(cfg)
	if err != nil {
		return nil, err
	}
	if restore, qerr := calc.Quiet(); qerr == nil {
		defer restore()
	}
	return ensemble.New(ensemble.Config{
		Models:            models,
		DisableCorrection: !cfg.CorrectionEnabled(),
		Timeout:           cfg.Timeout(),
	})
}

// params that name a checkpoint and may reference a registry artifact.
var artifactParams = []string{"load_path", "pretrained_path", "model_path"}

// resolveArtifacts rewrites checkpoint references in model params to
// absolute paths from the models-dir registry, so configs can name weight
// files without caring where they live.
func resolveArtifacts(cfg *config.Config) ([]types.ModelConfig, error) {
	if cfg.ModelsDir == "" {
		return cfg.Models, nil
	}
	artifacts, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("scanning models dir %s: %w", cfg.ModelsDir, err)
	}
	out := make([]types.ModelConfig, len(cfg.Models))
	for i, mc := range cfg.Models {
		out[i] = mc
		for _, key := range artifactParams {
			ref, ok := mc.Params[key].(string)
			if !ok {
				continue
			}
			path, err := registry.Resolve(artifacts, ref)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", mc.Name, err)
			}
			params := make(map[string]any, len(mc.Params))
			for k, v := range mc.Params {
				params[k] = v
			}
			params[key] = path
			out[i].Params = params
		}
	}
	return out, nil
}
