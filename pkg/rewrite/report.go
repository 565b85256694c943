package rewrite

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// RenderSummary renders the per-file outcome table shown after a run. One
// row per wildcard import site, plus a footer totalling edits and files.
func RenderSummary(changes []FileChange) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"File", "Line", "Wildcard", "Outcome", "Kept Names"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	filesChanged := 0
	totalEdits := 0
	for _, change := range changes {
		if change.Written || change.Diff != "" {
			filesChanged++
		}
		totalEdits += change.Edits
		for _, site := range change.Sites {
			outcome := string(site.State)
			if site.Err != nil {
				outcome = fmt.Sprintf("%s (%v)", site.State, site.Err)
			}
			table.Append([]string{
				change.Path,
				fmt.Sprintf("%d", site.Row+1),
				"from " + site.Spelling + " import *",
				outcome,
				strings.Join(site.Kept, ", "),
			})
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Files changed %d", filesChanged),
		"", "",
		fmt.Sprintf("edits %d", totalEdits),
		"",
	})
	table.Render()

	return tableBuffer.String()
}
