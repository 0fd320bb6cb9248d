package state

import (
	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/graph"
)

// GraphState represents the serialized state for the frontend
type GraphState struct {
	Repo           string            `json:"repo"`
	HEAD           git.Head          `json:"HEAD"`
	Branches       map[string]string `json:"branches"`
	RemoteBranches map[string]string `json:"remoteBranches"`
	Tags           map[string]string `json:"tags"`
	Commits        []Commit          `json:"commits"`
	MaxLane        int               `json:"maxLane"`
	Query          Query             `json:"query"`
}

// Commit is a history row together with where the graph draws it.
type Commit struct {
	git.Commit
	Graph graph.Node `json:"graph"`
}

// Query selects which part of history a GraphState shows.
type Query struct {
	Ref    string `json:"ref,omitempty"`
	Limit  int    `json:"limit"`
	Search string `json:"search,omitempty"`
	All    bool   `json:"all"`
}
