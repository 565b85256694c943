package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/l3aro/unstar/internal/config"
	"github.com/l3aro/unstar/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration and interpreter",
	Long: `Checks the configuration and verifies that the Python interpreter used
for wildcard resolution is accessible and working.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, configPath, err := loadConfigWithPath()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		result, err := healthcheck.Check(cfg, "", configPath)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		fmt.Print(healthcheck.FormatResult(result))

		if result.Interpreter.Status == "error" || result.Cache.Status == "error" {
			return fmt.Errorf("health check failed")
		}
		return nil
	},
}

func loadConfigWithPath() (*config.Config, string, error) {
	projectConfigPath := ".unstar/config.yaml"
	projectExists := fileExists(projectConfigPath)

	home, _ := os.UserHomeDir()
	globalConfigPath := ""
	if home != "" {
		globalConfigPath = filepath.Join(home, ".unstar", "config.yaml")
	}
	globalExists := fileExists(globalConfigPath)

	var effectivePath string
	if projectExists {
		effectivePath = projectConfigPath
	} else if globalExists {
		effectivePath = globalConfigPath
	} else {
		return nil, "", fmt.Errorf("no configuration found\n"+
			"Checked paths:\n"+
			"  - %s (project)\n"+
			"  - %s (global)\n"+
			"Run 'unstar init' to create a configuration file",
			projectConfigPath, globalConfigPath)
	}

	cfg, err := config.LoadFromFile(effectivePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", effectivePath, err)
	}

	return cfg, effectivePath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
