// Package store owns the authoritative in-memory draft state for one
// app session. It orchestrates the AI pipeline and the remote draft
// gateway, applies optimistic updates, and falls back to the local
// snapshot when the backend is unreachable. State transitions are
// serialized; the I/O between them is not.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/voicepost/voicepost/internal/api"
	"github.com/voicepost/voicepost/internal/models"
)

// DraftsGateway is the remote draft store contract the core depends on.
type DraftsGateway interface {
	List(ctx context.Context, filter models.DraftFilter, limit, offset int) ([]*models.Draft, error)
	Get(ctx context.Context, id string) (*models.Draft, error)
	Create(ctx context.Context, req api.CreateDraftRequest) (*models.Draft, error)
	Update(ctx context.Context, id string, patch api.DraftPatch) (*models.Draft, error)
	Delete(ctx context.Context, id string) error
	Schedule(ctx context.Context, id string, at time.Time) (*models.Draft, error)
	Unschedule(ctx context.Context, id string) (*models.Draft, error)
	Stats(ctx context.Context) (*models.DraftStats, error)
}

// PipelineGateway is the slice of the AI pipeline the store drives.
type PipelineGateway interface {
	ProcessVoicePost(ctx context.Context, audio api.AudioRef, tone models.Tone) (*api.ProcessVoiceResult, error)
	ChangeTone(ctx context.Context, text string, newTone models.Tone) (*api.RefineResult, error)
	ApplyVoiceEdit(ctx context.Context, currentText, instructionTranscript string, tone models.Tone) (*api.RefineResult, error)
}

// PublishGateway posts finished drafts to LinkedIn.
type PublishGateway interface {
	Now(ctx context.Context, draftID string) (*api.PublishResult, error)
}

// SnapshotCache is the advisory local fallback for the draft list.
type SnapshotCache interface {
	SaveDraftSnapshot(drafts []*models.Draft)
	LoadDraftSnapshot() ([]*models.Draft, bool)
}

// Store is the single source of truth for drafts during a session.
// All state transitions happen under one mutex and are atomic: an
// update to a draft by id lands in the list, currentDraft and
// recentDraft within a single transition.
type Store struct {
	drafts   DraftsGateway
	pipeline PipelineGateway
	publish  PublishGateway
	cache    SnapshotCache
	validate *validator.Validate
	log      *logrus.Entry

	mu           sync.Mutex
	list         []*models.Draft
	current      *models.Draft
	recent       *models.Draft
	stats        models.DraftStats
	filter       models.DraftFilter
	isLoading    bool
	isProcessing bool
	errMsg       string
}

// New creates a store over the given gateways and cache.
func New(drafts DraftsGateway, pipeline PipelineGateway, publish PublishGateway, cache SnapshotCache) *Store {
	return &Store{
		drafts:   drafts,
		pipeline: pipeline,
		publish:  publish,
		cache:    cache,
		validate: validator.New(),
		log:      logrus.WithField("component", "store"),
		filter:   models.FilterAll,
	}
}

// FetchDrafts replaces the draft list wholesale from the backend. On
// success the list is snapshotted to the local cache (best effort). On
// failure the snapshot is read back instead: the list is populated from
// stale data, loading ends, but the error stays set so callers can tell
// fresh from stale.
func (s *Store) FetchDrafts(ctx context.Context, filter *models.DraftFilter) error {
	s.mu.Lock()
	if filter != nil {
		s.filter = *filter
	}
	effective := s.filter
	s.isLoading = true
	s.errMsg = ""
	s.mu.Unlock()

	fetched, err := s.drafts.List(ctx, effective, 0, 0)
	if err != nil {
		s.log.WithError(err).Warn("draft fetch failed, trying local snapshot")
		cached, ok := s.cache.LoadDraftSnapshot()

		s.mu.Lock()
		s.isLoading = false
		s.errMsg = userMessage(err)
		if ok && len(cached) > 0 {
			s.replaceListLocked(cached)
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.replaceListLocked(fetched)
	s.isLoading = false
	s.mu.Unlock()

	// Snapshot only full fetches; a filtered subset would clobber the
	// fallback with a partial list.
	if effective == models.FilterAll || effective == "" {
		s.cache.SaveDraftSnapshot(fetched)
	}
	return nil
}

// ProcessVoiceRecording runs the capture-to-draft pipeline: the fused
// transcribe+refine call, then a create against the remote store. The
// new draft becomes current and recent, is prepended to the list, and
// totalDrafts is bumped optimistically. Neither stage retries; the
// capture controller owns the retry affordance.
func (s *Store) ProcessVoiceRecording(ctx context.Context, audio api.AudioRef, tone models.Tone) (*models.Draft, error) {
	if !tone.Valid() {
		tone = models.ToneProfessional
	}

	s.mu.Lock()
	s.isProcessing = true
	s.errMsg = ""
	s.mu.Unlock()

	processed, err := s.pipeline.ProcessVoicePost(ctx, audio, tone)
	if err != nil {
		s.finishProcessing(err)
		return nil, err
	}

	title := processed.Title
	if title == "" {
		title = models.GenerateTitleFromContent(processed.RefinedText, models.DefaultTitleLength)
	}

	created, err := s.drafts.Create(ctx, api.CreateDraftRequest{
		RawTranscript:   processed.Transcript,
		AIRefinedText:   processed.RefinedText,
		Title:           title,
		Tone:            tone,
		Status:          models.StatusDraft,
		AudioURI:        audio.FileName,
		AudioDurationMs: processed.DurationMs,
		Media:           []models.MediaAttachment{},
	})
	if err != nil {
		// The pipeline result exists but was never persisted; surface
		// that rather than silently applying half the flow.
		s.finishProcessing(err)
		return nil, fmt.Errorf("voice post processed but not saved: %w", err)
	}

	s.mu.Lock()
	s.list = append([]*models.Draft{created}, s.list...)
	s.current = created
	s.recent = created
	s.stats.TotalDrafts++
	s.isProcessing = false
	s.mu.Unlock()

	return created.Clone(), nil
}

// UpdateDraftTone regenerates the draft's text in a new tone and
// persists it. The refined text lands in both aiRefinedText and
// userEditedText: a tone change is a one-way content replacement that
// restarts the editing pass, not a merge.
func (s *Store) UpdateDraftTone(ctx context.Context, draftID string, newTone models.Tone) (*models.Draft, error) {
	if !newTone.Valid() {
		return nil, s.fail(fmt.Errorf("unknown tone %q", newTone))
	}

	s.mu.Lock()
	target := s.findLocked(draftID)
	if target == nil {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("draft %s not found", draftID))
	}
	text := target.DisplayText()
	s.mu.Unlock()

	refined, err := s.pipeline.ChangeTone(ctx, text, newTone)
	if err != nil {
		return nil, s.fail(err)
	}

	tone := newTone
	updated, err := s.drafts.Update(ctx, draftID, api.DraftPatch{
		Tone:           &tone,
		AIRefinedText:  &refined.RefinedText,
		UserEditedText: &refined.RefinedText,
	})
	if err != nil {
		return nil, s.fail(err)
	}

	s.applyDraft(updated)
	return updated.Clone(), nil
}

// ApplyVoiceEdit rewrites the draft's text following a spoken
// instruction, then persists the result as a user edit.
func (s *Store) ApplyVoiceEdit(ctx context.Context, draftID, instructionTranscript string) (*models.Draft, error) {
	s.mu.Lock()
	target := s.findLocked(draftID)
	if target == nil {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("draft %s not found", draftID))
	}
	text := target.DisplayText()
	tone := target.Tone
	s.mu.Unlock()

	refined, err := s.pipeline.ApplyVoiceEdit(ctx, text, instructionTranscript, tone)
	if err != nil {
		return nil, s.fail(err)
	}

	updated, err := s.drafts.Update(ctx, draftID, api.DraftPatch{
		UserEditedText: &refined.RefinedText,
	})
	if err != nil {
		return nil, s.fail(err)
	}

	s.applyDraft(updated)
	return updated.Clone(), nil
}

// SaveDraft persists user edits (text, title, tone, media) through the
// gateway and applies the server's view locally.
func (s *Store) SaveDraft(ctx context.Context, draftID string, patch api.DraftPatch) (*models.Draft, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, s.fail(fmt.Errorf("invalid draft update: %w", err))
	}

	updated, err := s.drafts.Update(ctx, draftID, patch)
	if err != nil {
		return nil, s.fail(err)
	}

	s.applyDraft(updated)
	return updated.Clone(), nil
}

// ScheduleDraft persists a future publish time and moves the draft to
// scheduled status. The scheduled counter is adjusted symmetrically
// with UnscheduleDraft so the local figure tracks every transition.
func (s *Store) ScheduleDraft(ctx context.Context, draftID string, at time.Time) (*models.Draft, error) {
	if !at.After(time.Now()) {
		return nil, s.fail(fmt.Errorf("scheduled time must be in the future"))
	}

	updated, err := s.drafts.Schedule(ctx, draftID, at)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	prev := s.findLocked(draftID)
	if prev == nil || prev.Status != models.StatusScheduled {
		s.stats.ScheduledPosts++
	}
	s.applyDraftLocked(updated)
	s.mu.Unlock()

	return updated.Clone(), nil
}

// UnscheduleDraft returns a scheduled draft to plain draft status and
// decrements the scheduled counter it incremented on the way in.
func (s *Store) UnscheduleDraft(ctx context.Context, draftID string) (*models.Draft, error) {
	updated, err := s.drafts.Unschedule(ctx, draftID)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	prev := s.findLocked(draftID)
	if prev != nil && prev.Status == models.StatusScheduled && s.stats.ScheduledPosts > 0 {
		s.stats.ScheduledPosts--
	}
	s.applyDraftLocked(updated)
	s.mu.Unlock()

	return updated.Clone(), nil
}

// PublishDraft publishes immediately through the publishing gateway and
// moves the draft to published locally.
func (s *Store) PublishDraft(ctx context.Context, draftID string) (*models.Draft, error) {
	result, err := s.publish.Now(ctx, draftID)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	prev := s.findLocked(draftID)
	if prev == nil {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("draft %s not found after publish", draftID))
	}
	published := prev.Clone()
	published.Status = models.StatusPublished
	published.ScheduledAt = nil
	if result.PublishedAt != nil {
		published.PublishedAt = result.PublishedAt
	} else {
		now := time.Now()
		published.PublishedAt = &now
	}
	if prev.Status == models.StatusScheduled && s.stats.ScheduledPosts > 0 {
		s.stats.ScheduledPosts--
	}
	s.stats.PublishedPosts++
	s.applyDraftLocked(published)
	s.mu.Unlock()

	return published.Clone(), nil
}

// AttachMedia validates the attachment against the draft's existing
// media (up to 9 images or exactly 1 video, never both) and persists
// the new set. The policy check runs before any network call.
func (s *Store) AttachMedia(ctx context.Context, draftID string, attachment models.MediaAttachment) (*models.Draft, error) {
	s.mu.Lock()
	target := s.findLocked(draftID)
	if target == nil {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("draft %s not found", draftID))
	}
	if err := models.CanAttach(target.Media, attachment); err != nil {
		s.mu.Unlock()
		return nil, s.fail(err)
	}
	media := append(append([]models.MediaAttachment(nil), target.Media...), attachment)
	s.mu.Unlock()

	return s.SaveDraft(ctx, draftID, api.DraftPatch{Media: &media})
}

// RemoveMedia drops the attachment with the given URI and persists the
// remaining set.
func (s *Store) RemoveMedia(ctx context.Context, draftID, uri string) (*models.Draft, error) {
	s.mu.Lock()
	target := s.findLocked(draftID)
	if target == nil {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("draft %s not found", draftID))
	}
	media := make([]models.MediaAttachment, 0, len(target.Media))
	for _, m := range target.Media {
		if m.URI != uri {
			media = append(media, m)
		}
	}
	s.mu.Unlock()

	return s.SaveDraft(ctx, draftID, api.DraftPatch{Media: &media})
}

// DeleteDraft removes the draft remotely and locally, clears
// currentDraft when it matched, and walks the counters back.
func (s *Store) DeleteDraft(ctx context.Context, draftID string) error {
	if err := s.drafts.Delete(ctx, draftID); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	var removed *models.Draft
	kept := make([]*models.Draft, 0, len(s.list))
	for _, d := range s.list {
		if d.ID == draftID {
			removed = d
			continue
		}
		kept = append(kept, d)
	}
	s.list = kept
	if s.current != nil && s.current.ID == draftID {
		s.current = nil
	}
	if s.stats.TotalDrafts > 0 {
		s.stats.TotalDrafts--
	}
	if removed != nil {
		switch removed.Status {
		case models.StatusScheduled:
			if s.stats.ScheduledPosts > 0 {
				s.stats.ScheduledPosts--
			}
		case models.StatusPublished:
			if s.stats.PublishedPosts > 0 {
				s.stats.PublishedPosts--
			}
		}
	}
	s.recomputeRecentLocked()
	s.mu.Unlock()
	return nil
}

// RefreshStats replaces the local counters with the server's
// authoritative figures.
func (s *Store) RefreshStats(ctx context.Context) error {
	stats, err := s.drafts.Stats(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.stats = *stats
	s.mu.Unlock()
	return nil
}

// --- synchronous local transitions, no I/O ---

// SetCurrentDraft opens a draft in the editor. If the id is already in
// the list the list entry is replaced too, keeping the two views of the
// draft identical within the same transition.
func (s *Store) SetCurrentDraft(draft *models.Draft) {
	if draft == nil {
		return
	}
	clone := draft.Clone()
	s.mu.Lock()
	s.current = clone
	for i, d := range s.list {
		if d.ID == clone.ID && clone.ID != "" {
			s.list[i] = clone
			break
		}
	}
	s.mu.Unlock()
}

func (s *Store) ClearCurrentDraft() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

func (s *Store) SetFilter(filter models.DraftFilter) {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// --- read accessors; every returned draft is a copy ---

// Drafts returns the current list, newest first.
func (s *Store) Drafts() []*models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(s.list)
}

// FilteredDrafts returns the list narrowed by the active filter.
// Derived, never stored.
func (s *Store) FilteredDrafts() []*models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(models.FilterDrafts(s.list, s.filter))
}

func (s *Store) CurrentDraft() *models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// RecentDraft is the most recent draft-status item, used for the
// "continue last draft" affordance.
func (s *Store) RecentDraft() *models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.Clone()
}

func (s *Store) Stats() models.DraftStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Store) Filter() models.DraftFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

func (s *Store) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isProcessing
}

// Err returns the user-facing error message, empty when none.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// --- internals; *Locked methods require s.mu held ---

// findLocked locates a draft by id, preferring the open editor copy
// over the list so in-flight local edits are what later operations see.
func (s *Store) findLocked(id string) *models.Draft {
	if s.current != nil && s.current.ID == id {
		return s.current
	}
	for _, d := range s.list {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// replaceListLocked swaps in a new list wholesale (no merge with prior
// entries) and reconciles currentDraft and recentDraft against it.
func (s *Store) replaceListLocked(drafts []*models.Draft) {
	s.list = drafts
	if s.current != nil && s.current.ID != "" {
		for _, d := range drafts {
			if d.ID == s.current.ID {
				s.current = d
				break
			}
		}
	}
	s.recomputeRecentLocked()
}

func (s *Store) applyDraft(draft *models.Draft) {
	s.mu.Lock()
	s.applyDraftLocked(draft)
	s.mu.Unlock()
}

// applyDraftLocked propagates a draft update to the list, currentDraft
// and recentDraft within one transition, so no stale duplicate of the
// id can be observed.
func (s *Store) applyDraftLocked(draft *models.Draft) {
	for i, d := range s.list {
		if d.ID == draft.ID {
			s.list[i] = draft
			break
		}
	}
	if s.current != nil && s.current.ID == draft.ID {
		s.current = draft
	}
	if s.recent != nil && s.recent.ID == draft.ID {
		s.recent = draft
	}
	s.recomputeRecentLocked()
}

// recomputeRecentLocked picks the newest draft-status item; the list is
// kept newest first.
func (s *Store) recomputeRecentLocked() {
	for _, d := range s.list {
		if d.Status == models.StatusDraft {
			s.recent = d
			return
		}
	}
	s.recent = nil
}

func (s *Store) finishProcessing(err error) {
	s.mu.Lock()
	s.isProcessing = false
	s.errMsg = userMessage(err)
	s.mu.Unlock()
}

// fail records the user-facing message and passes the error through.
func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.errMsg = userMessage(err)
	s.mu.Unlock()
	return err
}

// userMessage reduces an error to the line shown in the UI; normalized
// gateway errors already carry a human-readable message.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := api.AsAPIError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}

func cloneList(drafts []*models.Draft) []*models.Draft {
	out := make([]*models.Draft, len(drafts))
	for i, d := range drafts {
		out[i] = d.Clone()
	}
	return out
}
