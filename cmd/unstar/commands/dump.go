package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/unstar/internal/config"
)

// TreeDump is the serialized form of a full analysis: both maps with every
// level sorted, so two dumps of an unchanged tree compare byte-identical.
type TreeDump struct {
	Imports map[string]map[string][]string `json:"imports" msgpack:"imports"`
	Usage   map[string][]string            `json:"usage" msgpack:"usage"`
}

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [path]",
	Short: "Serialize the origin and usage maps",
	Long: `Analyzes the tree and writes both resolved maps to a file, for test
fixtures or for comparing two runs. The format follows the output
extension: .msgpack or .bin selects msgpack, anything else JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		output, _ := cmd.Flags().GetString("output")
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

		dump := TreeDump{
			Imports: sess.result.Origins.Export(),
			Usage:   sess.result.Usage.Export(),
		}

		var data []byte
		switch filepath.Ext(output) {
		case ".msgpack", ".bin":
			data, err = msgpack.Marshal(&dump)
		default:
			data, err = json.MarshalIndent(&dump, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("encoding dump: %w", err)
		}

		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		fmt.Printf("wrote %s (%d modules)\n", output, len(dump.Usage))
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringP("output", "o", "unstar.dump.json", "Output file")
	dumpCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
}
