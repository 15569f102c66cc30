package filter

import (
	"sort"
	"strings"

	"github.com/ramanasai/brain/internal/row"
)

// Facets are the distinct values offered by the filter bar.
type Facets struct {
	Categories    []string
	SubCategories []string
	// Tags holds the most frequent tags, most frequent first.
	Tags []string
}

// FacetsOf collects the facets of rows.
func FacetsOf(rows []row.Row) Facets {
	cats := map[string]bool{}
	subs := map[string]bool{}
	tagCount := map[string]int{}
	for _, r := range rows {
		if r.Category != "" {
			cats[r.Category] = true
		}
		if r.SubCategory != "" {
			subs[r.SubCategory] = true
		}
		for _, t := range row.ParseTags(r.Tags) {
			tagCount[t]++
		}
	}

	tags := make([]string, 0, len(tagCount))
	for t := range tagCount {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagCount[tags[i]] != tagCount[tags[j]] {
			return tagCount[tags[i]] > tagCount[tags[j]]
		}
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	if len(tags) > maxFacetTags {
		tags = tags[:maxFacetTags]
	}
	return Facets{Categories: sorted(cats), SubCategories: sorted(subs), Tags: tags}
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Counts tallies rows per status bucket.
type Counts struct {
	Total    int
	Pending  int
	Progress int
	Done     int
}

// CountsOf computes Counts over rows.
func CountsOf(rows []row.Row) Counts {
	c := Counts{Total: len(rows)}
	for _, r := range rows {
		switch row.StatusBucket(r.TaskStatus) {
		case row.BucketDone:
			c.Done++
		case row.BucketProgress:
			c.Progress++
		default:
			c.Pending++
		}
	}
	return c
}
