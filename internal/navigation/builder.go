package navigation

import (
	"fmt"
	"sort"
)

// Forest is the result of Build: the ordered roots and the integrity issues
// recovered along the way.
type Forest struct {
	Roots  []*NavigationNode
	Issues []Issue
}

// BuildTree turns a flat record list into an ordered forest. It is a pure
// function of its input.
func BuildTree(records []PageRecord) []*NavigationNode {
	return Build(records).Roots
}

// Build is BuildTree that also reports what it had to repair. Records whose
// parent is missing, or whose parent chain loops back on itself, become
// roots. A repeated id keeps its first record. Siblings are ordered by
// NavPosition ascending with unset positions last, ties in input order.
func Build(records []PageRecord) Forest {
	var issues []Issue

	kept := make([]PageRecord, 0, len(records))
	index := make(map[int64]int, len(records))
	for _, record := range records {
		if _, dup := index[record.ID]; dup {
			issues = append(issues, Issue{
				Kind:    IssueDuplicateID,
				PageID:  record.ID,
				Keyword: record.Keyword,
				Detail:  fmt.Sprintf("page id %d appears more than once; later record %q dropped", record.ID, record.Keyword),
			})
			continue
		}
		index[record.ID] = len(kept)
		kept = append(kept, record.Clone())
	}

	parentOf := make([]int, len(kept))
	for i, record := range kept {
		parentOf[i] = -1
		if record.Parent == nil {
			continue
		}
		pos, ok := index[*record.Parent]
		if !ok {
			issues = append(issues, Issue{
				Kind:     IssueOrphanParent,
				PageID:   record.ID,
				Keyword:  record.Keyword,
				ParentID: *record.Parent,
				Detail:   fmt.Sprintf("parent %d does not exist; page %q placed at root", *record.Parent, record.Keyword),
			})
			continue
		}
		parentOf[i] = pos
	}

	for _, member := range cycleMembers(parentOf) {
		record := kept[member]
		issues = append(issues, Issue{
			Kind:     IssueParentCycle,
			PageID:   record.ID,
			Keyword:  record.Keyword,
			ParentID: *record.Parent,
			Detail:   fmt.Sprintf("page %q is part of a parent cycle; placed at root", record.Keyword),
		})
		parentOf[member] = -1
	}

	nodes := make([]*NavigationNode, len(kept))
	for i, record := range kept {
		nodes[i] = &NavigationNode{Record: record}
	}
	var roots []*NavigationNode
	for i, node := range nodes {
		if parent := parentOf[i]; parent >= 0 {
			nodes[parent].Children = append(nodes[parent].Children, node)
			continue
		}
		roots = append(roots, node)
	}

	sortSiblings(roots)
	issues = append(issues, duplicateKeywords(roots)...)
	return Forest{Roots: roots, Issues: issues}
}

// cycleMembers returns the positions of records whose parent chain returns to
// themselves, in ascending order.
func cycleMembers(parentOf []int) []int {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, len(parentOf))
	inCycle := make([]bool, len(parentOf))

	for start := range parentOf {
		if state[start] != unvisited {
			continue
		}
		var path []int
		current := start
		for current >= 0 && state[current] == unvisited {
			state[current] = onPath
			path = append(path, current)
			current = parentOf[current]
		}
		if current >= 0 && state[current] == onPath {
			for i := len(path) - 1; i >= 0; i-- {
				inCycle[path[i]] = true
				if path[i] == current {
					break
				}
			}
		}
		for _, pos := range path {
			state[pos] = done
		}
	}

	var members []int
	for pos, ok := range inCycle {
		if ok {
			members = append(members, pos)
		}
	}
	return members
}

func sortSiblings(nodes []*NavigationNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return positionLess(nodes[i].Record.NavPosition, nodes[j].Record.NavPosition)
	})
	for _, node := range nodes {
		sortSiblings(node.Children)
	}
}

// positionLess orders set positions ascending and unset positions last.
func positionLess(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

func duplicateKeywords(roots []*NavigationNode) []Issue {
	var issues []Issue
	seen := map[string]int64{}
	Walk(roots, func(node *NavigationNode, _ int) bool {
		record := node.Record
		if first, ok := seen[record.Keyword]; ok {
			issues = append(issues, Issue{
				Kind:    IssueDuplicateKeyword,
				PageID:  record.ID,
				Keyword: record.Keyword,
				Detail:  fmt.Sprintf("keyword %q already used by page %d; lookups resolve to page %d", record.Keyword, first, first),
			})
			return true
		}
		seen[record.Keyword] = record.ID
		return true
	})
	return issues
}

// Walk visits the forest depth-first in pre-order. Returning false from fn
// skips the node's children.
func Walk(roots []*NavigationNode, fn func(node *NavigationNode, depth int) bool) {
	var visit func(nodes []*NavigationNode, depth int)
	visit = func(nodes []*NavigationNode, depth int) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			if fn(node, depth) {
				visit(node.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// Flatten lists every record in pre-order.
func Flatten(roots []*NavigationNode) []PageRecord {
	var out []PageRecord
	Walk(roots, func(node *NavigationNode, _ int) bool {
		out = append(out, node.Record.Clone())
		return true
	})
	return out
}

// DeriveMenu lists, in tree order, the records that have a nav position and
// are not headless.
func DeriveMenu(roots []*NavigationNode) []PageRecord {
	var out []PageRecord
	for _, record := range Flatten(roots) {
		if record.InMenu() {
			out = append(out, record)
		}
	}
	return out
}

// DeriveFooter lists the records that have a footer position and are not
// headless, ordered by footer position with ties in tree order.
func DeriveFooter(roots []*NavigationNode) []PageRecord {
	var out []PageRecord
	for _, record := range Flatten(roots) {
		if record.InFooter() {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].FooterPosition < *out[j].FooterPosition
	})
	return out
}

// CloneTree deep-copies a forest.
func CloneTree(roots []*NavigationNode) []*NavigationNode {
	if roots == nil {
		return nil
	}
	out := make([]*NavigationNode, len(roots))
	for i, node := range roots {
		out[i] = &NavigationNode{
			Record:   node.Record.Clone(),
			Children: CloneTree(node.Children),
		}
	}
	return out
}
