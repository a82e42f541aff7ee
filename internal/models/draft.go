package models

import (
	"strings"
	"time"
)

// Tone is a named stylistic preset applied by the AI refinement step.
type Tone string

const (
	ToneProfessional  Tone = "Professional"
	ToneReflective    Tone = "Reflective"
	ToneThoughtLeader Tone = "Thought Leader"
	ToneCasualPro     Tone = "Casual-Pro"
)

// Tones lists every valid tone, in display order.
var Tones = []Tone{ToneProfessional, ToneReflective, ToneThoughtLeader, ToneCasualPro}

// Valid reports whether t is one of the known tones.
func (t Tone) Valid() bool {
	for _, known := range Tones {
		if t == known {
			return true
		}
	}
	return false
}

// Status is the forward-moving lifecycle tag of a draft.
// A draft never regresses from "published" back to "draft".
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// Draft represents one social post in progress, from raw transcript
// through AI refinement, user edits, scheduling and publishing.
type Draft struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	RawTranscript   string            `json:"raw_transcript"`
	AIRefinedText   string            `json:"ai_refined_text"`
	UserEditedText  string            `json:"user_edited_text"`
	Title           string            `json:"title"`
	Tone            Tone              `json:"tone"`
	Status          Status            `json:"status"`
	ScheduledAt     *time.Time        `json:"scheduled_at,omitempty"`
	PublishedAt     *time.Time        `json:"published_at,omitempty"`
	AudioURI        string            `json:"audio_uri,omitempty"`
	AudioDurationMs int               `json:"audio_duration_ms,omitempty"`
	Media           []MediaAttachment `json:"media_attachments"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewDraft creates a new draft with defaults. It is a pure constructor:
// validation is the caller's responsibility.
func NewDraft(userID, rawTranscript, refinedText string, tone Tone) *Draft {
	if tone == "" {
		tone = ToneProfessional
	}
	now := time.Now()
	return &Draft{
		UserID:        userID,
		RawTranscript: rawTranscript,
		AIRefinedText: refinedText,
		Tone:          tone,
		Status:        StatusDraft,
		Media:         []MediaAttachment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// DisplayText resolves the text shown to the user and sent at publish
// time: user edits win over AI output, AI output wins over the raw
// transcript. Every read of a draft's content goes through this rule so
// the user's own edits are never silently discarded.
func (d *Draft) DisplayText() string {
	if d == nil {
		return ""
	}
	if d.UserEditedText != "" {
		return d.UserEditedText
	}
	if d.AIRefinedText != "" {
		return d.AIRefinedText
	}
	return d.RawTranscript
}

// DefaultTitleLength is the cut-off used when deriving a title from content.
const DefaultTitleLength = 40

// GenerateTitleFromContent derives a short human label from post text:
// newlines collapse to spaces, surrounding whitespace is trimmed, and
// anything over maxLen is truncated with a trailing ellipsis.
func GenerateTitleFromContent(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultTitleLength
	}
	title := strings.Join(strings.Fields(text), " ")
	if len(title) <= maxLen {
		return title
	}
	return strings.TrimSpace(title[:maxLen]) + "..."
}

// Clone returns a deep copy of the draft so store snapshots handed to
// callers cannot alias the store's own state.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	out.Media = append([]MediaAttachment(nil), d.Media...)
	if d.ScheduledAt != nil {
		at := *d.ScheduledAt
		out.ScheduledAt = &at
	}
	if d.PublishedAt != nil {
		at := *d.PublishedAt
		out.PublishedAt = &at
	}
	return &out
}
