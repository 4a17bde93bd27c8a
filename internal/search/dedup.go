package search

import (
	"sort"

	"github.com/newsreach/contact-discovery/internal/model"
)

// mergeCandidates deduplicates by normalized email, keeping the
// highest-confidence instance and unioning non-conflicting fields, then
// sorts by confidence descending.
func mergeCandidates(in []model.CandidateContact) []model.CandidateContact {
	byKey := make(map[string]model.CandidateContact, len(in))
	var order []string

	for _, c := range in {
		key := c.DedupKey()
		if key == "" {
			continue
		}
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = c
			order = append(order, key)
			continue
		}
		byKey[key] = mergePair(existing, c)
	}

	out := make([]model.CandidateContact, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// mergePair keeps the higher-confidence candidate and fills its empty
// fields from the other. Conflicting non-empty fields keep the winner's
// value.
func mergePair(a, b model.CandidateContact) model.CandidateContact {
	winner, loser := a, b
	if b.Confidence > a.Confidence {
		winner, loser = b, a
	}
	if winner.Name == "" {
		winner.Name = loser.Name
	}
	if winner.Role == "" {
		winner.Role = loser.Role
	}
	if winner.Organization == "" {
		winner.Organization = loser.Organization
	}
	if winner.SourceURL == "" {
		winner.SourceURL = loser.SourceURL
	}
	return winner
}
