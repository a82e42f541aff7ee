package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicepost/voicepost/internal/models"
)

func TestDisplayText_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		draft models.Draft
		want  string
	}{
		{
			name:  "user edits win over everything",
			draft: models.Draft{RawTranscript: "a", AIRefinedText: "b", UserEditedText: "c"},
			want:  "c",
		},
		{
			name:  "refined text wins over transcript",
			draft: models.Draft{RawTranscript: "a", AIRefinedText: "b", UserEditedText: ""},
			want:  "b",
		},
		{
			name:  "transcript as last resort",
			draft: models.Draft{RawTranscript: "a"},
			want:  "a",
		},
		{
			name:  "all empty yields empty string",
			draft: models.Draft{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.draft.DisplayText())
		})
	}
}

func TestDisplayText_NilDraft(t *testing.T) {
	var d *models.Draft
	assert.Equal(t, "", d.DisplayText())
}

func TestGenerateTitleFromContent_ShortTextUnchanged(t *testing.T) {
	got := models.GenerateTitleFromContent("Shipping season", 40)
	assert.Equal(t, "Shipping season", got)
}

func TestGenerateTitleFromContent_CollapsesNewlinesAndTrims(t *testing.T) {
	got := models.GenerateTitleFromContent("  First line\nsecond line\t third  ", 60)
	assert.Equal(t, "First line second line third", got)
}

func TestGenerateTitleFromContent_TruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got := models.GenerateTitleFromContent(long, 40)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 40+3)
}

func TestGenerateTitleFromContent_Idempotent(t *testing.T) {
	inputs := []string{
		"short",
		"Line one\nline two",
		"  padded out  ",
	}
	for _, input := range inputs {
		once := models.GenerateTitleFromContent(input, 40)
		twice := models.GenerateTitleFromContent(once, 40)
		assert.Equal(t, once, twice, "title generation should be stable for %q", input)
	}
}

func TestNewDraft_Defaults(t *testing.T) {
	d := models.NewDraft("user-1", "raw", "refined", "")

	assert.Equal(t, models.ToneProfessional, d.Tone)
	assert.Equal(t, models.StatusDraft, d.Status)
	assert.NotNil(t, d.Media)
	assert.Empty(t, d.Media)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)
}

func TestCanAttach_ImageLimits(t *testing.T) {
	image := models.MediaAttachment{URI: "file://a.jpg", Type: models.MediaImage}

	var nine []models.MediaAttachment
	for i := 0; i < models.MaxImageAttachments; i++ {
		nine = append(nine, image)
	}

	assert.NoError(t, models.CanAttach(nil, image))
	assert.NoError(t, models.CanAttach(nine[:8], image))
	assert.ErrorIs(t, models.CanAttach(nine, image), models.ErrTooManyImages)
}

func TestCanAttach_VideoIsExclusive(t *testing.T) {
	image := models.MediaAttachment{URI: "file://a.jpg", Type: models.MediaImage}
	video := models.MediaAttachment{URI: "file://v.mp4", Type: models.MediaVideo}

	assert.NoError(t, models.CanAttach(nil, video))
	assert.ErrorIs(t, models.CanAttach([]models.MediaAttachment{image}, video), models.ErrVideoExclusive)
	assert.ErrorIs(t, models.CanAttach([]models.MediaAttachment{video}, image), models.ErrVideoExclusive)
	assert.ErrorIs(t, models.CanAttach([]models.MediaAttachment{video}, video), models.ErrVideoExclusive)
}

func TestCanAttach_UnknownType(t *testing.T) {
	bad := models.MediaAttachment{URI: "file://x", Type: "gif"}
	assert.ErrorIs(t, models.CanAttach(nil, bad), models.ErrUnknownMediaType)
}

func TestFilterDrafts(t *testing.T) {
	drafts := []*models.Draft{
		{ID: "1", Status: models.StatusDraft},
		{ID: "2", Status: models.StatusScheduled},
		{ID: "3", Status: models.StatusPublished},
		{ID: "4", Status: models.StatusDraft},
	}

	assert.Len(t, models.FilterDrafts(drafts, models.FilterAll), 4)
	assert.Len(t, models.FilterDrafts(drafts, ""), 4)

	scheduled := models.FilterDrafts(drafts, models.FilterScheduled)
	assert.Len(t, scheduled, 1)
	assert.Equal(t, "2", scheduled[0].ID)

	draftsOnly := models.FilterDrafts(drafts, models.FilterDraft)
	assert.Len(t, draftsOnly, 2)
}

func TestClone_IsDeep(t *testing.T) {
	original := models.NewDraft("u", "raw", "refined", models.ToneReflective)
	original.Media = []models.MediaAttachment{{URI: "file://a.jpg", Type: models.MediaImage}}

	clone := original.Clone()
	clone.Media[0].URI = "file://b.jpg"
	clone.UserEditedText = "edited"

	assert.Equal(t, "file://a.jpg", original.Media[0].URI)
	assert.Equal(t, "", original.UserEditedText)
}
