package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/unstar/internal/config"
	"github.com/l3aro/unstar/pkg/rewrite"
)

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix [path]",
	Short: "Rewrite wildcard imports",
	Long: `Plans a rewrite for every wildcard import in the tree and shows the
resulting diffs. Files are only written under --apply; without it the
command is a dry run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		apply, _ := cmd.Flags().GetBool("apply")
		strategy, _ := cmd.Flags().GetString("strategy")
		aliases, _ := cmd.Flags().GetStringArray("alias")
		verbose, _ := cmd.Flags().GetBool("verbose")

		sess, err := analyzeTree(cmd.Context(), root, func(cfg *config.Config) {
			if strategy != "" {
				cfg.Strategy = config.StrategyType(strategy)
			}
			if verbose {
				cfg.Verbose = true
			}
			for _, pair := range aliases {
				k, v, ok := strings.Cut(pair, "=")
				if ok && k != "" && v != "" {
					if cfg.Aliases == nil {
						cfg.Aliases = map[string]string{}
					}
					cfg.Aliases[k] = v
				}
			}
		})
		if err != nil {
			return err
		}
		defer sess.close()

		planner := rewrite.NewPlanner(
			sess.result.Origins,
			sess.result.AllUsed(),
			rewrite.Strategy(sess.cfg.Strategy),
			sess.cfg.Aliases,
		)
		applier := &rewrite.Applier{DryRun: !apply}

		var changes []rewrite.FileChange
		failed := 0
		for _, mod := range sess.result.Modules {
			plan := planner.PlanModule(cmd.Context(), mod)
			if len(plan.Sites) == 0 {
				continue
			}
			change := applier.Apply(plan)
			if change.Err != nil {
				failed++
				sess.logger.Error("file left untouched", "path", change.Path, "error", change.Err)
			}
			changes = append(changes, change)
		}

		if len(changes) == 0 {
			fmt.Println("No wildcard imports found.")
			return nil
		}

		for _, change := range changes {
			if change.Diff != "" {
				fmt.Print(change.Diff)
			}
			if change.Written {
				fmt.Printf("rewrote %s (%d edits)\n", change.Path, change.Edits)
			}
		}
		fmt.Print(rewrite.RenderSummary(changes))
		reportIssues(sess)

		if failed > 0 {
			return fmt.Errorf("%d file(s) could not be rewritten", failed)
		}
		return nil
	},
}

func init() {
	fixCmd.Flags().BoolP("apply", "e", false, "Write the rewritten files (default is dry run)")
	fixCmd.Flags().String("strategy", "", "Rewrite strategy: narrow or qualify")
	fixCmd.Flags().StringArray("alias", nil, "Module alias for the qualify strategy, as module=alias (repeatable)")
	fixCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
}
