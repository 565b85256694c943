package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/unstar/internal/config"
	"github.com/l3aro/unstar/internal/healthcheck"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize unstar configuration interactively",
	Long: `Guides you through setting up unstar configuration step by step.
Creates a config file with the Python interpreter, rewrite strategy and
scan exclusions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	python := "python3"
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Python interpreter").
				Description("Used to import analyzed modules and enumerate their wildcard exports").
				Placeholder("python3").
				Value(&python),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var strategyChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Rewrite strategy").
				Description("How wildcard imports with surviving names are rewritten").
				Options(
					huh.NewOption("Narrow - from module import the, used, names", string(config.StrategyNarrow)),
					huh.NewOption("Qualify - import module; rewrite uses to module.name", string(config.StrategyQualify)),
				).
				Value(&strategyChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	excludes := ""
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Extra exclusions (optional, comma separated, press Enter to skip)").
				Placeholder("migrations,generated").
				Value(&excludes),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var global bool
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Where should the configuration live?").
				Affirmative("Global (~/.unstar)").
				Negative("This project (./.unstar)").
				Value(&global),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfg := config.DefaultConfig()
	if python != "" {
		cfg.Python = python
	}
	cfg.Strategy = config.StrategyType(strategyChoice)
	for _, pattern := range strings.Split(excludes, ",") {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			cfg.Excludes = append(cfg.Excludes, pattern)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	savedPath := filepath.Join(".unstar", "config.yaml")
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		savedPath = filepath.Join(home, ".unstar", "config.yaml")
	}
	if err := cfg.Save(savedPath); err != nil {
		return err
	}

	result, err := healthcheck.Check(cfg, savedPath, savedPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Print(healthcheck.FormatResult(result))
	return nil
}
