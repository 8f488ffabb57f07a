package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joshharrison/timeloom/internal/cpm"
	"github.com/joshharrison/timeloom/internal/graph"
)

// --- Graph types (the chart's dependency view) ---

type GraphNode struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	IsCritical bool      `json:"is_critical"`
	TotalSlack float64   `json:"total_slack"`
	WaveIndex  int       `json:"wave_index"`
}

type GraphEdge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Type string  `json:"type"`
	Lag  float64 `json:"lag,omitempty"`
}

type GraphMetadata struct {
	ID         string `json:"id"`
	CreatedAt  string `json:"created_at"`
	TotalTasks int    `json:"total_tasks"`
	TotalWaves int    `json:"total_waves"`
	Converged  bool   `json:"converged"`
}

type Graph struct {
	Nodes        []GraphNode   `json:"nodes"`
	Edges        []GraphEdge   `json:"edges"`
	CriticalPath []string      `json:"critical_path"`
	Metadata     GraphMetadata `json:"metadata"`
}

// toGraph converts an analysis into the normalised Graph the chart renders.
// Edges naming unknown tasks are left out.
func toGraph(tasks []graph.Task, deps []graph.Dependency, res *cpm.Result) *Graph {
	nodes := make([]GraphNode, 0, len(tasks))
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if known[t.ID] {
			continue
		}
		known[t.ID] = true
		n := GraphNode{ID: t.ID, Title: t.Name, Type: string(t.Type), Start: t.Start, End: t.End}
		if s := res.Schedules[t.ID]; s != nil {
			n.IsCritical = s.IsCritical
			n.TotalSlack = s.TotalSlack
			n.WaveIndex = s.Wave
		}
		nodes = append(nodes, n)
	}

	edges := make([]GraphEdge, 0, len(deps))
	for _, d := range deps {
		if !known[d.From] || !known[d.To] {
			continue
		}
		edges = append(edges, GraphEdge{From: d.From, To: d.To, Type: string(d.Type), Lag: d.Lag})
	}

	return &Graph{
		Nodes:        nodes,
		Edges:        edges,
		CriticalPath: res.CriticalPath,
		Metadata: GraphMetadata{
			ID:         uuid.NewString(),
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
			TotalTasks: len(nodes),
			TotalWaves: len(res.Waves),
			Converged:  res.Converged,
		},
	}
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	g := s.graph
	s.mu.RUnlock()

	if g == nil {
		writeError(w, http.StatusNotFound, "no_graph")
		return
	}
	writeJSON(w, http.StatusOK, g)
}
