package graph

import (
	"errors"
	"fmt"
)

// ErrDuplicateTask is returned by CheckUnique when two tasks share an ID.
var ErrDuplicateTask = errors.New("duplicate task id")

// Build indexes tasks and dependencies. It never fails: edges that name a
// missing task land in Skipped, repeated task IDs land in Duplicates, and
// cycles are left in place for DetectCycle to report.
// The returned graph holds copies; the inputs are not retained.
func Build(tasks []Task, deps []Dependency) *TaskGraph {
	g := &TaskGraph{
		Tasks: make([]*Task, 0, len(tasks)),
		Index: make(map[string]*Task, len(tasks)),
		Preds: make(map[string][]*Dependency),
		Succs: make(map[string][]*Dependency),
	}

	for i := range tasks {
		t := tasks[i]
		if _, ok := g.Index[t.ID]; ok {
			g.Duplicates = append(g.Duplicates, t.ID)
			continue
		}
		g.Tasks = append(g.Tasks, &t)
		g.Index[t.ID] = &t
	}

	for i := range deps {
		d := deps[i]
		_, fromOK := g.Index[d.From]
		_, toOK := g.Index[d.To]
		if !fromOK || !toOK {
			g.Skipped = append(g.Skipped, d)
			continue
		}
		if d.Type == "" {
			d.Type = FinishToStart
		}
		g.Edges = append(g.Edges, &d)
		g.Preds[d.To] = append(g.Preds[d.To], &d)
		g.Succs[d.From] = append(g.Succs[d.From], &d)
	}

	for _, t := range g.Tasks {
		if len(g.Preds[t.ID]) == 0 {
			g.Roots = append(g.Roots, t.ID)
		}
		if len(g.Succs[t.ID]) == 0 {
			g.Leaves = append(g.Leaves, t.ID)
		}
	}

	return g
}

// CheckUnique returns ErrDuplicateTask naming the first repeated ID.
func CheckUnique(tasks []Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
// Traversal follows task order so the reported cycle is deterministic.
func (g *TaskGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, e := range g.Succs[node] {
			next := e.To
			if color[next] == gray {
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, t := range g.Tasks {
		if color[t.ID] == white {
			if cycle := dfs(t.ID); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Tasks)
}

// Filter returns a new TaskGraph containing only tasks matching the predicate.
// Edges touching a filtered-out task are dropped, not re-wired. Skipped
// edges and duplicate IDs of g carry over so diagnostics survive filtering.
func (g *TaskGraph) Filter(pred func(*Task) bool) *TaskGraph {
	var tasks []Task
	for _, t := range g.Tasks {
		if pred(t) {
			tasks = append(tasks, *t)
		}
	}
	var deps []Dependency
	keep := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		keep[t.ID] = true
	}
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			deps = append(deps, *e)
		}
	}
	out := Build(tasks, deps)
	out.Skipped = append(append([]Dependency(nil), g.Skipped...), out.Skipped...)
	out.Duplicates = append(append([]string(nil), g.Duplicates...), out.Duplicates...)
	return out
}

// TaskList returns copies of the indexed tasks in order.
func (g *TaskGraph) TaskList() []Task {
	out := make([]Task, len(g.Tasks))
	for i, t := range g.Tasks {
		out[i] = *t
	}
	return out
}

// DependencyList returns copies of the kept edges in order.
func (g *TaskGraph) DependencyList() []Dependency {
	out := make([]Dependency, len(g.Edges))
	for i, e := range g.Edges {
		out[i] = *e
	}
	return out
}
