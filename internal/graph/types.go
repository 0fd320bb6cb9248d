package graph

// DefaultPaletteSize is the number of distinct lane colors before they repeat.
const DefaultPaletteSize = 8

// CommitRecord is the layout input for one commit: its identifier and the
// identifiers of its parents, first parent first.
type CommitRecord struct {
	ID        string
	ParentIDs []string
}

// Line is a connector drawn for a row, from one lane to another.
// From == To is a straight segment continuing a lane into the next row.
type Line struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Color int `json:"color"`
}

// Node is the layout of one commit row.
type Node struct {
	Lane          int    `json:"lane"`
	Color         int    `json:"color"`
	IsFirstInLane bool   `json:"isFirstInLane"`
	Lines         []Line `json:"lines"`
}
