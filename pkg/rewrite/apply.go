package rewrite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/l3aro/unstar/pkg/pysrc"
)

// Edit is one textual splice: replace lines[Line][StartCol:EndCol] with
// Replacement. Original holds the exact text being replaced; the applier
// refuses the whole file's edit set when it is not found in place.
// TrimLine marks whole-statement edits: after splicing, trailing space is
// stripped and a line left empty is removed entirely.
type Edit struct {
	Line        int
	StartCol    int
	EndCol      int
	Original    string
	Replacement string
	TrimLine    bool
}

// MismatchError reports an edit whose recorded original text was not found
// at its position. The file it belongs to is left untouched.
type MismatchError struct {
	Path string
	Line int
	Want string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s:%d: expected %q at recorded position", e.Path, e.Line+1, e.Want)
}

// FileChange is the outcome of applying one plan.
type FileChange struct {
	Path    string
	ModPath string
	Sites   []Site
	Edits   int
	Diff    string // unified diff, dry runs only
	Written bool
	Err     error
}

// Applier validates plans against the current source text and either
// rewrites the files or renders dry-run diffs. Edits to one file are all
// or nothing: a single mismatch discards every pending edit for that file.
type Applier struct {
	DryRun bool
}

// Apply runs one plan. The source is re-read from disk so the safety check
// sees what would actually be rewritten, not what was scanned.
func (a *Applier) Apply(plan *Plan) FileChange {
	change := FileChange{Path: plan.Path, ModPath: plan.ModPath, Sites: plan.Sites}
	if !plan.Changed() {
		return change
	}

	source, err := os.ReadFile(plan.Path)
	if err != nil {
		change.Err = err
		return change
	}
	lines := pysrc.SplitLines(string(source))

	edited, err := spliceAll(plan.Path, lines, plan.Edits)
	if err != nil {
		change.Err = err
		return change
	}
	change.Edits = len(plan.Edits)
	result := strings.Join(edited, "")

	if a.DryRun {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(source)),
			B:        difflib.SplitLines(result),
			FromFile: plan.Path,
			ToFile:   plan.Path + " (rewritten)",
			Context:  2,
		})
		if err != nil {
			change.Err = err
			return change
		}
		change.Diff = diff
		return change
	}

	if err := writeFileAtomic(plan.Path, []byte(result)); err != nil {
		change.Err = err
		return change
	}
	change.Written = true
	return change
}

// spliceAll applies edits bottom-up into a copy of the line buffer. Plans
// order edits by descending line and column, so a removed line or a splice
// never shifts the position of an edit still to come.
func spliceAll(path string, lines []string, edits []Edit) ([]string, error) {
	out := make([]string, len(lines))
	copy(out, lines)

	for _, edit := range edits {
		if edit.Line >= len(out) {
			return nil, &MismatchError{Path: path, Line: edit.Line, Want: edit.Original}
		}
		line := out[edit.Line]
		if edit.EndCol > len(line) || line[edit.StartCol:edit.EndCol] != edit.Original {
			return nil, &MismatchError{Path: path, Line: edit.Line, Want: edit.Original}
		}
		line = line[:edit.StartCol] + edit.Replacement + line[edit.EndCol:]
		if edit.TrimLine {
			line = strings.TrimRight(line, " \t\r\n")
			if line == "" {
				out = append(out[:edit.Line], out[edit.Line+1:]...)
				continue
			}
			line += "\n"
		}
		out[edit.Line] = line
	}
	return out, nil
}

// writeFileAtomic writes content through a temp file in the same directory
// and renames it over the target, preserving the original mode.
func writeFileAtomic(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
