package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mlipens/internal/config"
	"mlipens/internal/mlip"
	"mlipens/internal/registry"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported model names and discovered weight artifacts",
		RunE:  runModels,
	}
}

func runModels(cmd *cobra.Command, _ []string) error {
	cmd.Println("supported models:")
	for _, name := range mlip.Names() {
		cmd.Println("  " + name)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil || cfg.ModelsDir == "" {
		return nil
	}
	artifacts, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("scanning models dir %s: %w", cfg.ModelsDir, err)
	}
	cmd.Printf("weight artifacts in %s:\n", cfg.ModelsDir)
	for _, a := range artifacts {
		cmd.Printf("  %s (%d MB)\n", a.ID, a.SizeBytes/(1024*1024))
	}
	return nil
}
