package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/voicepost/voicepost/internal/models"
)

// DraftsService is the remote draft gateway: it owns the wire
// representation and is the only code that touches raw server JSON for
// drafts. Every field is given an explicit default on the way in, so an
// un-mapped raw object can never flow past this boundary into the
// store.
type DraftsService struct {
	client *Client
}

// draftWire mirrors the backend's draft shape. The backend sometimes
// omits optional fields, so everything the entity requires gets
// defaulted in toDraft.
type draftWire struct {
	ID              string                   `json:"id"`
	UserID          string                   `json:"user_id"`
	RawTranscript   string                   `json:"raw_transcript"`
	AIRefinedText   string                   `json:"ai_refined_text"`
	UserEditedText  string                   `json:"user_edited_text"`
	Title           string                   `json:"title"`
	Tone            string                   `json:"tone"`
	Status          string                   `json:"status"`
	ScheduledAt     *time.Time               `json:"scheduled_at"`
	PublishedAt     *time.Time               `json:"published_at"`
	AudioURI        string                   `json:"audio_uri"`
	AudioDurationMs int                      `json:"audio_duration_ms"`
	Media           []models.MediaAttachment `json:"media_attachments"`
	CreatedAt       *time.Time               `json:"created_at"`
	UpdatedAt       *time.Time               `json:"updated_at"`
}

// toDraft maps a wire draft onto the entity, applying safe defaults for
// every potentially-absent field. Notably media_attachments defaults to
// an empty list rather than nil.
func (w draftWire) toDraft() *models.Draft {
	tone := models.Tone(w.Tone)
	if !tone.Valid() {
		tone = models.ToneProfessional
	}
	status := models.Status(w.Status)
	if status == "" {
		status = models.StatusDraft
	}
	media := w.Media
	if media == nil {
		media = []models.MediaAttachment{}
	}
	draft := &models.Draft{
		ID:              w.ID,
		UserID:          w.UserID,
		RawTranscript:   w.RawTranscript,
		AIRefinedText:   w.AIRefinedText,
		UserEditedText:  w.UserEditedText,
		Title:           w.Title,
		Tone:            tone,
		Status:          status,
		ScheduledAt:     w.ScheduledAt,
		PublishedAt:     w.PublishedAt,
		AudioURI:        w.AudioURI,
		AudioDurationMs: w.AudioDurationMs,
		Media:           media,
	}
	if w.CreatedAt != nil {
		draft.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		draft.UpdatedAt = *w.UpdatedAt
	}
	if draft.Title == "" {
		draft.Title = models.GenerateTitleFromContent(draft.DisplayText(), models.DefaultTitleLength)
	}
	return draft
}

// CreateDraftRequest carries the fields of a first create.
type CreateDraftRequest struct {
	RawTranscript   string                   `json:"raw_transcript"`
	AIRefinedText   string                   `json:"ai_refined_text"`
	UserEditedText  string                   `json:"user_edited_text,omitempty"`
	Title           string                   `json:"title"`
	Tone            models.Tone              `json:"tone"`
	Status          models.Status            `json:"status"`
	AudioURI        string                   `json:"audio_uri,omitempty"`
	AudioDurationMs int                      `json:"audio_duration_ms,omitempty"`
	Media           []models.MediaAttachment `json:"media_attachments"`
}

// DraftPatch is a partial update; nil fields are left untouched by the
// server, which stamps updated_at itself.
type DraftPatch struct {
	AIRefinedText  *string                   `json:"ai_refined_text,omitempty" validate:"omitempty"`
	UserEditedText *string                   `json:"user_edited_text,omitempty"`
	Title          *string                   `json:"title,omitempty" validate:"omitempty,max=120"`
	Tone           *models.Tone              `json:"tone,omitempty"`
	Status         *models.Status            `json:"status,omitempty"`
	Media          *[]models.MediaAttachment `json:"media_attachments,omitempty"`
}

// List fetches the user's drafts, newest first. An empty filter (or
// FilterAll) omits the status parameter.
func (s *DraftsService) List(ctx context.Context, filter models.DraftFilter, limit, offset int) ([]*models.Draft, error) {
	query := url.Values{}
	if status := filter.StatusParam(); status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		query.Set("offset", fmt.Sprintf("%d", offset))
	}
	path := "/drafts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var wire struct {
		Drafts []draftWire `json:"drafts"`
	}
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}

	drafts := make([]*models.Draft, 0, len(wire.Drafts))
	for _, w := range wire.Drafts {
		drafts = append(drafts, w.toDraft())
	}
	return drafts, nil
}

// Get fetches a single draft by id.
func (s *DraftsService) Get(ctx context.Context, id string) (*models.Draft, error) {
	var wire draftWire
	if err := s.client.doJSON(ctx, http.MethodGet, "/drafts/"+id, nil, &wire); err != nil {
		return nil, err
	}
	return wire.toDraft(), nil
}

// Create persists a new draft; the server assigns the id.
func (s *DraftsService) Create(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	if req.Media == nil {
		req.Media = []models.MediaAttachment{}
	}
	var wire draftWire
	if err := s.client.doJSON(ctx, http.MethodPost, "/drafts", req, &wire); err != nil {
		return nil, err
	}
	return wire.toDraft(), nil
}

// Update applies a partial update and returns the server's view of the
// draft.
func (s *DraftsService) Update(ctx context.Context, id string, patch DraftPatch) (*models.Draft, error) {
	var wire draftWire
	if err := s.client.doJSON(ctx, http.MethodPatch, "/drafts/"+id, patch, &wire); err != nil {
		return nil, err
	}
	return wire.toDraft(), nil
}

// Delete removes a draft permanently.
func (s *DraftsService) Delete(ctx context.Context, id string) error {
	return s.client.doJSON(ctx, http.MethodDelete, "/drafts/"+id, nil, nil)
}

type scheduleRequest struct {
	ScheduledAt string `json:"scheduledAt"`
}

// Schedule marks the draft for publishing at the given instant.
func (s *DraftsService) Schedule(ctx context.Context, id string, at time.Time) (*models.Draft, error) {
	var wire draftWire
	body := scheduleRequest{ScheduledAt: at.UTC().Format(time.RFC3339)}
	if err := s.client.doJSON(ctx, http.MethodPost, "/drafts/"+id+"/schedule", body, &wire); err != nil {
		return nil, err
	}
	return wire.toDraft(), nil
}

// Unschedule returns a scheduled draft to plain draft status.
func (s *DraftsService) Unschedule(ctx context.Context, id string) (*models.Draft, error) {
	var wire draftWire
	if err := s.client.doJSON(ctx, http.MethodPost, "/drafts/"+id+"/unschedule", nil, &wire); err != nil {
		return nil, err
	}
	return wire.toDraft(), nil
}

// Stats fetches the server's authoritative per-user counters.
func (s *DraftsService) Stats(ctx context.Context) (*models.DraftStats, error) {
	var stats models.DraftStats
	if err := s.client.doJSON(ctx, http.MethodGet, "/drafts/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
