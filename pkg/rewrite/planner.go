// Package rewrite plans and applies the textual edits that remove wildcard
// imports: each "from M import *" is deleted when nothing it introduces is
// used, narrowed to an explicit name list, or converted to a qualified
// module import with its use sites rewritten.
package rewrite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/unstar/pkg/analysis"
	"github.com/l3aro/unstar/pkg/pysrc"
)

// Strategy selects how a wildcard import with surviving names is rewritten.
type Strategy string

const (
	// StrategyNarrow rewrites to "from M import n1, n2" listing only the
	// names still in use, keeping the original module spelling.
	StrategyNarrow Strategy = "narrow"
	// StrategyQualify rewrites to "import M [as alias]" and turns every
	// surviving bare-name use in the module into a qualified access.
	StrategyQualify Strategy = "qualify"
)

// SiteState is the terminal state of one wildcard import site.
type SiteState string

const (
	SiteUnchanged SiteState = "unchanged"
	SiteDeleted   SiteState = "deleted"
	SiteNarrowed  SiteState = "narrowed"
	SiteQualified SiteState = "qualified"
)

// Site is one wildcard import site and the decision taken for it.
type Site struct {
	Row      int    // 0-based source line of the import statement
	Col      int    // 0-based byte column of the statement start
	Spelling string // module as written, leading dots included
	FromPath string // resolved absolute module path
	Kept     []string
	State    SiteState
	Err      error
}

// Plan is the full edit set for one file. Edits are ordered for
// application: descending by line, then descending by column, so earlier
// splices never invalidate later positions.
type Plan struct {
	Path    string
	ModPath string
	Sites   []Site
	Edits   []Edit
}

// Changed reports whether the plan carries any edits.
func (p *Plan) Changed() bool { return len(p.Edits) > 0 }

// Planner turns wildcard import sites into edit plans. It reads the frozen
// origin map and the global used-origin set; it never mutates either.
type Planner struct {
	origins  *analysis.Resolved
	allUsed  analysis.OriginSet
	strategy Strategy
	aliases  map[string]string
}

// NewPlanner creates a planner over completed analysis results. The alias
// table is consulted by the qualify strategy, keyed by resolved module
// path with the path's last segment as fallback.
func NewPlanner(origins *analysis.Resolved, allUsed analysis.OriginSet, strategy Strategy, aliases map[string]string) *Planner {
	return &Planner{origins: origins, allUsed: allUsed, strategy: strategy, aliases: aliases}
}

func (p *Planner) alias(frompath string) string {
	if a, ok := p.aliases[frompath]; ok {
		return a
	}
	last := frompath
	if i := strings.LastIndexByte(frompath, '.'); i >= 0 {
		last = frompath[i+1:]
	}
	return p.aliases[last]
}

// PlanModule inspects every wildcard import in the module and produces the
// file's edit plan. A site whose relative spelling cannot be resolved is
// recorded with its error and left untouched.
func (p *Planner) PlanModule(ctx context.Context, mod *pysrc.Module) *Plan {
	plan := &Plan{Path: mod.Path, ModPath: mod.ModPath}
	lines := mod.Lines()
	claimed := make(map[[2]int]bool)

	for _, stmt := range pysrc.CollectImports(mod.Root, mod.Source) {
		if !stmt.From || !stmt.Wildcard {
			continue
		}
		site := Site{Row: stmt.Row, Col: stmt.Col, Spelling: stmt.ModuleSpelling()}

		frompath, err := analysis.ResolveFromPath(mod.PkgPath, stmt.Module, stmt.Level)
		if err != nil {
			site.State = SiteUnchanged
			site.Err = err
			plan.Sites = append(plan.Sites, site)
			continue
		}
		site.FromPath = frompath

		for _, name := range p.origins.StarNames(ctx, frompath) {
			if p.allUsed.Has(mod.ModPath + "." + name) {
				site.Kept = append(site.Kept, name)
			}
		}

		edit, err := p.planSite(&site, stmt, lines)
		if err != nil {
			site.State = SiteUnchanged
			site.Err = err
			plan.Sites = append(plan.Sites, site)
			continue
		}
		if edit != nil {
			plan.Edits = append(plan.Edits, *edit)
		}
		if site.State == SiteQualified {
			// a name kept by two wildcard sites is qualified once, by the
			// first site planned
			for _, use := range p.qualifyUses(&site, mod) {
				pos := [2]int{use.Line, use.StartCol}
				if claimed[pos] {
					continue
				}
				claimed[pos] = true
				plan.Edits = append(plan.Edits, use)
			}
		}
		plan.Sites = append(plan.Sites, site)
	}

	sort.SliceStable(plan.Edits, func(i, j int) bool {
		if plan.Edits[i].Line != plan.Edits[j].Line {
			return plan.Edits[i].Line > plan.Edits[j].Line
		}
		return plan.Edits[i].StartCol > plan.Edits[j].StartCol
	})
	return plan
}

// planSite decides the site's terminal state and builds the import-line
// edit. The replaced span runs from the statement start through the star
// token, matching how the statement was found.
func (p *Planner) planSite(site *Site, stmt pysrc.ImportStmt, lines []string) (*Edit, error) {
	if stmt.Row >= len(lines) {
		return nil, fmt.Errorf("import at line %d beyond end of file", stmt.Row+1)
	}
	line := lines[stmt.Row]
	star := strings.IndexByte(line[stmt.Col:], '*')
	if star < 0 {
		return nil, fmt.Errorf("no star on line %d", stmt.Row+1)
	}
	end := stmt.Col + star + 1

	var replacement string
	switch {
	case len(site.Kept) == 0:
		site.State = SiteDeleted
		replacement = ""
	case p.strategy == StrategyNarrow:
		site.State = SiteNarrowed
		replacement = fmt.Sprintf("from %s import %s", site.Spelling, strings.Join(site.Kept, ", "))
	case p.strategy == StrategyQualify:
		site.State = SiteQualified
		// a relative spelling cannot follow "import"; the resolved
		// absolute path is used instead
		replacement = "import " + site.FromPath
		if a := p.alias(site.FromPath); a != "" {
			replacement += " as " + a
		}
	default:
		site.State = SiteUnchanged
		return nil, nil
	}

	return &Edit{
		Line:        stmt.Row,
		StartCol:    stmt.Col,
		EndCol:      end,
		Original:    line[stmt.Col:end],
		Replacement: replacement,
		TrimLine:    true,
	}, nil
}

// qualifyUses emits one edit per surviving bare-name load, rewriting it to
// a qualified access with the same module or alias spelling as the import
// edit. Only identifier loads are touched; attribute accesses already
// carry their own qualification.
func (p *Planner) qualifyUses(site *Site, mod *pysrc.Module) []Edit {
	kept := make(map[string]bool, len(site.Kept))
	for _, name := range site.Kept {
		kept[name] = true
	}
	prefix := site.FromPath
	if a := p.alias(site.FromPath); a != "" {
		prefix = a
	}

	var edits []Edit
	pysrc.WalkLoads(mod.Root, func(node *sitter.Node) {
		if node.Type() != "identifier" {
			return
		}
		name := pysrc.NodeText(node, mod.Source)
		if !kept[name] {
			return
		}
		start := node.StartPoint()
		edits = append(edits, Edit{
			Line:        int(start.Row),
			StartCol:    int(start.Column),
			EndCol:      int(start.Column) + len(name),
			Original:    name,
			Replacement: prefix + "." + name,
		})
	})
	return edits
}
