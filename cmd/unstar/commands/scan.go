package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/unstar/internal/config"
	"github.com/l3aro/unstar/pkg/rewrite"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Analyze a tree and report every wildcard import",
	Long: `Scans the Python tree, resolves every imported name to its origins,
computes which origins are actually used, and reports what "unstar fix"
would do to each wildcard import. Both maps are dumped unless --imports
or --usage narrows the output to one. Nothing is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		showImports, _ := cmd.Flags().GetBool("imports")
		showUsage, _ := cmd.Flags().GetBool("usage")
		verbose, _ := cmd.Flags().GetBool("verbose")

		sess, err := analyzeTree(cmd.Context(), root, func(cfg *config.Config) {
			if verbose {
				cfg.Verbose = true
			}
		})
		if err != nil {
			return err
		}
		defer sess.close()

		if !showImports && !showUsage {
			showImports, showUsage = true, true
		}
		if showImports {
			sess.result.Origins.Dump(os.Stdout)
		}
		if showUsage {
			sess.result.Usage.Dump(os.Stdout)
		}

		planner := rewrite.NewPlanner(
			sess.result.Origins,
			sess.result.AllUsed(),
			rewrite.Strategy(sess.cfg.Strategy),
			sess.cfg.Aliases,
		)
		var changes []rewrite.FileChange
		for _, mod := range sess.result.Modules {
			plan := planner.PlanModule(cmd.Context(), mod)
			if len(plan.Sites) == 0 {
				continue
			}
			changes = append(changes, rewrite.FileChange{
				Path:    plan.Path,
				ModPath: plan.ModPath,
				Sites:   plan.Sites,
				Edits:   len(plan.Edits),
			})
		}

		if len(changes) == 0 {
			fmt.Println("No wildcard imports found.")
			return nil
		}
		fmt.Print(rewrite.RenderSummary(changes))
		reportIssues(sess)
		return nil
	},
}

// reportIssues echoes skipped modules and scan problems after the table.
func reportIssues(sess *session) {
	for _, issue := range sess.result.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %v\n", issue.Path, issue.Err)
	}
	for _, issue := range sess.result.Issues {
		fmt.Fprintf(os.Stderr, "error in %s: %v\n", issue.Path, issue.Err)
	}
}

func init() {
	scanCmd.Flags().BoolP("imports", "i", false, "Dump only the resolved origin map")
	scanCmd.Flags().BoolP("usage", "u", false, "Dump only the per-module usage map")
	scanCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
}
