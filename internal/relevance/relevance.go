// Package relevance filters postings against configured keyword lists.
package relevance

import (
	"strings"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// Filter accepts postings whose title matches a title keyword or whose
// description matches a general keyword. Matching is case-insensitive
// substring match. An empty filter accepts everything.
type Filter struct {
	titleKeywords []string
	keywords      []string
}

// New builds a Filter from the configured keyword lists.
func New(titleKeywords, keywords []string) *Filter {
	return &Filter{
		titleKeywords: lowerAll(titleKeywords),
		keywords:      lowerAll(keywords),
	}
}

// Match reports whether the posting is relevant.
func (f *Filter) Match(p pipeline.JobPosting) bool {
	if len(f.titleKeywords) == 0 && len(f.keywords) == 0 {
		return true
	}
	title := strings.ToLower(p.Title)
	for _, kw := range f.titleKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	description := strings.ToLower(p.Description)
	for _, kw := range f.keywords {
		if strings.Contains(description, kw) {
			return true
		}
	}
	return false
}

// Apply returns the relevant subset, preserving order.
func (f *Filter) Apply(postings []pipeline.JobPosting) []pipeline.JobPosting {
	if len(f.titleKeywords) == 0 && len(f.keywords) == 0 {
		return postings
	}
	out := make([]pipeline.JobPosting, 0, len(postings))
	for _, p := range postings {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}
