package recipes

import (
	"sort"
	"strings"

	"github.com/spicesync/spicesync/internal/domain/recipe"
	"github.com/spicesync/spicesync/internal/ports/inbound"
)

// Project applies the view options to a suggestion batch: search, then
// perfect-match gate, then dietary filters, then a stable sort. The
// input batch is never mutated; the projection is pure and can be
// recomputed on every option change.
func Project(batch []recipe.Suggestion, opts inbound.ViewOptions) []recipe.Suggestion {
	filtered := make([]recipe.Suggestion, 0, len(batch))

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	for _, s := range batch {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Title), search) &&
			!strings.Contains(strings.ToLower(s.Description), search) {
			continue
		}
		if opts.PerfectOnly && s.MatchScore <= 90 {
			continue
		}
		if !matchesDietaryFilters(s.DietaryTags, opts.DietaryFilters) {
			continue
		}
		filtered = append(filtered, s)
	}

	switch opts.SortBy {
	case inbound.SortByTime:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CookingTime < filtered[j].CookingTime
		})
	case inbound.SortByDifficulty:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Difficulty.Rank() < filtered[j].Difficulty.Rank()
		})
	case inbound.SortByScore:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].MatchScore > filtered[j].MatchScore
		})
	}

	return filtered
}

// matchesDietaryFilters requires every filter to find a substring
// match among the tags: AND across filters, case-insensitive substring
// OR within tags. "Vegan" therefore matches a "Strictly Vegan" tag.
func matchesDietaryFilters(tags, filters []string) bool {
	if len(filters) == 0 {
		return true
	}

	for _, filter := range filters {
		needle := strings.ToLower(filter)
		found := false
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
