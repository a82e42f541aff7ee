package models

// DraftFilter narrows a draft list by lifecycle status.
type DraftFilter string

const (
	FilterAll       DraftFilter = "all"
	FilterDraft     DraftFilter = "draft"
	FilterScheduled DraftFilter = "scheduled"
	FilterPublished DraftFilter = "published"
)

// StatusParam returns the wire value for the list endpoint's status
// query parameter; empty string means no filtering.
func (f DraftFilter) StatusParam() string {
	if f == "" || f == FilterAll {
		return ""
	}
	return string(f)
}

// FilterDrafts returns the subset of drafts matching f. FilterAll (or
// the zero value) passes everything through unfiltered.
func FilterDrafts(drafts []*Draft, f DraftFilter) []*Draft {
	if f == "" || f == FilterAll {
		return drafts
	}
	out := make([]*Draft, 0, len(drafts))
	for _, d := range drafts {
		if string(d.Status) == string(f) {
			out = append(out, d)
		}
	}
	return out
}

// DraftStats aggregates per-user counts shown on the home screen.
// Locally maintained figures are best-effort until refreshed from the
// server.
type DraftStats struct {
	TotalDrafts    int `json:"total_drafts"`
	ScheduledPosts int `json:"scheduled_posts"`
	PublishedPosts int `json:"published_posts"`
}
