package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicepost/voicepost/internal/api"
	"github.com/voicepost/voicepost/internal/models"
)

func TestProcessVoicePost_UploadsMultipart(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/process-voice", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Reflective", r.FormValue("tone"))
		assert.Equal(t, "audio/mp4", r.FormValue("mime_type"))

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "take.m4a", header.Filename)
		raw, _ := io.ReadAll(file)
		assert.Equal(t, "fake-audio-bytes", string(raw))

		w.Write([]byte(`{"transcript":"so today i shipped","refined_text":"Today I shipped.","title":"Today I shipped","duration_ms":4200}`))
	}))
	defer server.Close()

	audio := api.AudioRef{
		FileName: "take.m4a",
		MimeType: "audio/mp4",
		Body:     strings.NewReader("fake-audio-bytes"),
	}
	result, err := client.Pipeline().ProcessVoicePost(context.Background(), audio, models.ToneReflective)
	require.NoError(t, err)

	assert.Equal(t, "so today i shipped", result.Transcript)
	assert.Equal(t, "Today I shipped.", result.RefinedText)
	assert.Equal(t, "Today I shipped", result.Title)
	assert.Equal(t, 4200, result.DurationMs)
}

func TestProcessVoicePost_NilBodyRejectedLocally(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	}))
	defer server.Close()

	_, err := client.Pipeline().ProcessVoicePost(context.Background(), api.AudioRef{}, models.ToneProfessional)
	assert.Error(t, err)
}

func TestChangeTone_SendsTextAndTone(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/change-tone", r.URL.Path)
		var body struct {
			Text string `json:"text"`
			Tone string `json:"tone"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "current text", body.Text)
		assert.Equal(t, "Casual-Pro", body.Tone)
		w.Write([]byte(`{"refined_text":"looser take"}`))
	}))
	defer server.Close()

	result, err := client.Pipeline().ChangeTone(context.Background(), "current text", models.ToneCasualPro)
	require.NoError(t, err)
	assert.Equal(t, "looser take", result.RefinedText)
}

func TestApplyVoiceEdit_SendsInstruction(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/apply-edit", r.URL.Path)
		var body struct {
			CurrentText string `json:"current_text"`
			Instruction string `json:"instruction"`
			Tone        string `json:"tone"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cut the second paragraph", body.Instruction)
		w.Write([]byte(`{"refined_text":"trimmed"}`))
	}))
	defer server.Close()

	result, err := client.Pipeline().ApplyVoiceEdit(context.Background(), "text", "cut the second paragraph", models.ToneProfessional)
	require.NoError(t, err)
	assert.Equal(t, "trimmed", result.RefinedText)
}

func TestTranscribe_Decodes(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/transcribe", r.URL.Path)
		w.Write([]byte(`{"transcript":"hello","confidence":0.93,"duration_ms":1500}`))
	}))
	defer server.Close()

	result, err := client.Pipeline().Transcribe(context.Background(), api.AudioRef{
		FileName: "clip.m4a",
		Body:     strings.NewReader("bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Transcript)
	assert.InDelta(t, 0.93, result.Confidence, 0.0001)
}

func TestPublishNow_Decodes(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/publish/d1/now", r.URL.Path)
		w.Write([]byte(`{"status":"published","published_at":"2026-08-28T12:00:00Z","post_url":"https://linkedin.com/feed/update/1"}`))
	}))
	defer server.Close()

	result, err := client.Publish().Now(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, result.Status)
	require.NotNil(t, result.PublishedAt)
	assert.Equal(t, "https://linkedin.com/feed/update/1", result.PostURL)
}

func TestUploadMedia_ReturnsAssetURN(t *testing.T) {
	client, _, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/publish/media/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("media")
		require.NoError(t, err)
		assert.Equal(t, "photo.jpg", header.Filename)
		w.Write([]byte(`{"asset_urn":"urn:li:digitalmediaAsset:abc"}`))
	}))
	defer server.Close()

	result, err := client.Publish().UploadMedia(context.Background(), "photo.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "urn:li:digitalmediaAsset:abc", result.AssetURN)
}
