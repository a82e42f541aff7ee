package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicepost/voicepost/internal/api"
	"github.com/voicepost/voicepost/internal/models"
)

type fakeTokens struct {
	token   string
	cleared bool
}

func (f *fakeTokens) AuthToken() string { return f.token }
func (f *fakeTokens) ClearAuthToken()  { f.cleared = true; f.token = "" }

func newTestClient(handler http.Handler) (*api.Client, *fakeTokens, *httptest.Server) {
	server := httptest.NewServer(handler)
	tokens := &fakeTokens{token: "test-token"}
	client := api.NewClient(server.URL, tokens, 5*time.Second, 10*time.Second)
	return client, tokens, server
}

func TestList_AppliesWireDefaults(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drafts", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		// Backend omits media_attachments, tone, status and timestamps.
		w.Write([]byte(`{"drafts":[{"id":"d1","raw_transcript":"hello"}]}`))
	}))
	defer server.Close()

	drafts, err := client.Drafts().List(context.Background(), models.FilterAll, 0, 0)
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	d := drafts[0]
	assert.Equal(t, "d1", d.ID)
	assert.NotNil(t, d.Media, "missing media_attachments must default to an empty list")
	assert.Empty(t, d.Media)
	assert.Equal(t, models.ToneProfessional, d.Tone)
	assert.Equal(t, models.StatusDraft, d.Status)
	assert.Equal(t, "hello", d.Title, "missing title is derived from content")
}

func TestList_FilterAndPaging(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "scheduled", r.URL.Query().Get("status"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		w.Write([]byte(`{"drafts":[]}`))
	}))
	defer server.Close()

	drafts, err := client.Drafts().List(context.Background(), models.FilterScheduled, 20, 40)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestUnauthorized_ClearsToken(t *testing.T) {
	client, tokens, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := client.Drafts().Get(context.Background(), "d1")
	require.Error(t, err)

	apiErr, ok := api.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, api.ErrCodeAuth, apiErr.Code)
	assert.True(t, tokens.cleared)
}

func TestValidationError_CarriesServerMessage(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"tone must be one of the known presets"}`))
	}))
	defer server.Close()

	_, err := client.Drafts().Update(context.Background(), "d1", api.DraftPatch{})
	require.Error(t, err)

	apiErr, ok := api.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, api.ErrCodeValidation, apiErr.Code)
	assert.Equal(t, "tone must be one of the known presets", apiErr.Message)
}

func TestServerError_Classified(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := client.Drafts().Delete(context.Background(), "d1")
	require.Error(t, err)

	apiErr, ok := api.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, api.ErrCodeServer, apiErr.Code)
}

func TestNetworkError_Classified(t *testing.T) {
	tokens := &fakeTokens{}
	client := api.NewClient("http://127.0.0.1:1", tokens, time.Second, time.Second)

	_, err := client.Drafts().Get(context.Background(), "d1")
	require.Error(t, err)

	apiErr, ok := api.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, api.ErrCodeNetwork, apiErr.Code)
}

func TestCreate_SendsEmptyMediaList(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "[]", string(body["media_attachments"]))
		w.Write([]byte(`{"id":"new-id","raw_transcript":"raw","status":"draft"}`))
	}))
	defer server.Close()

	created, err := client.Drafts().Create(context.Background(), api.CreateDraftRequest{
		RawTranscript: "raw",
		Tone:          models.ToneProfessional,
		Status:        models.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
}

func TestSchedule_SendsISOTimestamp(t *testing.T) {
	at := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)

	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drafts/d1/schedule", r.URL.Path)
		var body struct {
			ScheduledAt string `json:"scheduledAt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-09-01T09:30:00Z", body.ScheduledAt)
		w.Write([]byte(`{"id":"d1","status":"scheduled","scheduled_at":"2026-09-01T09:30:00Z"}`))
	}))
	defer server.Close()

	scheduled, err := client.Drafts().Schedule(context.Background(), "d1", at)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, scheduled.Status)
	require.NotNil(t, scheduled.ScheduledAt)
	assert.True(t, scheduled.ScheduledAt.Equal(at))
}

func TestStats_Decodes(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drafts/stats", r.URL.Path)
		w.Write([]byte(`{"total_drafts":12,"scheduled_posts":3,"published_posts":5}`))
	}))
	defer server.Close()

	stats, err := client.Drafts().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.DraftStats{TotalDrafts: 12, ScheduledPosts: 3, PublishedPosts: 5}, stats)
}
