// Package graph assigns commits to lanes and colors for a commit graph view.
//
// The input is a commit list in history-walk order (children before their
// parents). Each commit gets a lane, a color and the line segments that
// connect its row to the next one. Freed lanes are reused leftmost-first so
// the graph stays as narrow as the history allows.
package graph

import "context"

// Engine lays out commit lists. It holds no per-call state, so one Engine can
// serve concurrent Layout calls.
type Engine struct {
	paletteSize int
}

// NewEngine returns an Engine cycling through paletteSize colors.
// A non-positive size falls back to DefaultPaletteSize.
func NewEngine(paletteSize int) *Engine {
	if paletteSize <= 0 {
		paletteSize = DefaultPaletteSize
	}
	return &Engine{paletteSize: paletteSize}
}

// PaletteSize returns the number of colors the engine cycles through.
func (e *Engine) PaletteSize() int {
	return e.paletteSize
}

// Layout lays out commits with the default palette.
func Layout(commits []CommitRecord) ([]Node, int) {
	return NewEngine(DefaultPaletteSize).Layout(commits)
}

// Layout returns one Node per commit, aligned with the input, and the highest
// lane index used.
func (e *Engine) Layout(commits []CommitRecord) ([]Node, int) {
	nodes, maxLane, _ := e.LayoutContext(context.Background(), commits)
	return nodes, maxLane
}

// LayoutContext is Layout with cancellation checked between rows.
func (e *Engine) LayoutContext(ctx context.Context, commits []CommitRecord) ([]Node, int, error) {
	st := newLayoutState(e.paletteSize, commits)
	nodes := make([]Node, 0, len(commits))
	for _, c := range commits {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, st.place(c))
	}
	return nodes, st.maxLane, nil
}

// layoutState is the mutable state of a single pass.
type layoutState struct {
	paletteSize int
	nextColor   int
	maxLane     int

	// lanes[i] is the commit currently owning lane i, "" when free.
	lanes   []string
	laneOf  map[string]int
	colorOf map[string]int
	// preassigned marks commits that a child already drew a line into.
	preassigned map[string]bool
	// present is the set of identifiers in the input. Parents outside it
	// never get a lane reserved.
	present map[string]bool
}

func newLayoutState(paletteSize int, commits []CommitRecord) *layoutState {
	present := make(map[string]bool, len(commits))
	for _, c := range commits {
		present[c.ID] = true
	}
	return &layoutState{
		paletteSize: paletteSize,
		laneOf:      make(map[string]int, len(commits)),
		colorOf:     make(map[string]int, len(commits)),
		preassigned: make(map[string]bool, len(commits)),
		present:     present,
	}
}

func (s *layoutState) place(c CommitRecord) Node {
	node := Node{Lines: []Line{}}

	// 1. Resolve the commit's own lane
	if s.preassigned[c.ID] {
		node.Lane = s.laneOf[c.ID]
		node.Color = s.colorOf[c.ID]
	} else {
		node.Lane = s.freeLane()
		node.Color = s.newColor()
		node.IsFirstInLane = true
		s.assign(c.ID, node.Lane, node.Color)
	}

	// 2. Occupy it
	s.occupy(node.Lane, c.ID)

	// 3. Unrelated lanes pass straight through this row
	for lane, id := range s.lanes {
		if lane == node.Lane || id == "" {
			continue
		}
		node.Lines = append(node.Lines, Line{From: lane, To: lane, Color: s.colorOf[id]})
	}

	// 4. Connect downwards
	parents := nonEmpty(c.ParentIDs)
	if len(parents) == 0 {
		s.lanes[node.Lane] = ""
		return node
	}
	release := s.continueLane(&node, parents[0])
	for _, p := range parents[1:] {
		s.branchTo(&node, p)
	}
	if release {
		s.lanes[node.Lane] = ""
	}
	return node
}

// continueLane hands the node's lane to its first parent, or converges onto
// the lane the parent already has. It reports whether the caller must free
// the lane once the other parents are placed: a stub for an absent parent
// keeps the lane held for the rest of the row.
func (s *layoutState) continueLane(node *Node, parent string) bool {
	if !s.present[parent] {
		node.Lines = append(node.Lines, Line{From: node.Lane, To: node.Lane, Color: node.Color})
		return true
	}
	if lane, ok := s.laneOf[parent]; ok {
		node.Lines = append(node.Lines, Line{From: node.Lane, To: lane, Color: node.Color})
		s.lanes[node.Lane] = ""
		return false
	}
	s.assign(parent, node.Lane, node.Color)
	s.preassigned[parent] = true
	s.occupy(node.Lane, parent)
	node.Lines = append(node.Lines, Line{From: node.Lane, To: node.Lane, Color: node.Color})
	return false
}

// branchTo connects a merge node to a non-first parent. The line takes the
// color of the lane it lands in.
func (s *layoutState) branchTo(node *Node, parent string) {
	if !s.present[parent] {
		return
	}
	if lane, ok := s.laneOf[parent]; ok {
		node.Lines = append(node.Lines, Line{From: node.Lane, To: lane, Color: s.colorOf[parent]})
		return
	}
	lane := s.freeLane()
	color := s.newColor()
	s.assign(parent, lane, color)
	s.preassigned[parent] = true
	s.occupy(lane, parent)
	node.Lines = append(node.Lines, Line{From: node.Lane, To: lane, Color: color})
}

// assign records a lane and color for id. The first assignment wins.
func (s *layoutState) assign(id string, lane, color int) {
	if _, ok := s.laneOf[id]; ok {
		return
	}
	s.laneOf[id] = lane
	s.colorOf[id] = color
}

func (s *layoutState) occupy(lane int, id string) {
	s.lanes[lane] = id
	if lane > s.maxLane {
		s.maxLane = lane
	}
}

// freeLane returns the leftmost free lane, growing the table if none is free.
func (s *layoutState) freeLane() int {
	for i, id := range s.lanes {
		if id == "" {
			return i
		}
	}
	s.lanes = append(s.lanes, "")
	return len(s.lanes) - 1
}

func (s *layoutState) newColor() int {
	color := s.nextColor % s.paletteSize
	s.nextColor++
	return color
}

func nonEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
