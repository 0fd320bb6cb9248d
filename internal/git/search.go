package git

import (
	"strings"

	"github.com/kurobon/gitlanes/internal/graph"
)

// Filter keeps the commits whose subject, author or ID contains term,
// ignoring case. A blank term keeps everything.
func Filter(commits []Commit, term string) []Commit {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return commits
	}

	out := make([]Commit, 0, len(commits))
	for _, c := range commits {
		if matches(c, term) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c Commit, term string) bool {
	for _, field := range []string{c.Subject, c.Author, c.ID} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Records projects commits onto the layout engine's input.
func Records(commits []Commit) []graph.CommitRecord {
	records := make([]graph.CommitRecord, len(commits))
	for i, c := range commits {
		records[i] = graph.CommitRecord{ID: c.ID, ParentIDs: c.ParentIDs}
	}
	return records
}
