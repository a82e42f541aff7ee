package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/voicepost/voicepost/internal/models"
)

// PipelineService wraps the backend's speech and AI endpoints. It
// operates on raw text and audio only and knows nothing about drafts.
// None of the calls retry; a retry is always an explicit user action
// upstream.
type PipelineService struct {
	client *Client
}

// AudioRef points at a finished recording to be uploaded.
type AudioRef struct {
	FileName string
	MimeType string
	Body     io.Reader
}

// TranscribeResult is the raw speech-to-text output.
type TranscribeResult struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	DurationMs int     `json:"duration_ms"`
}

// RefineResult carries AI-polished text for a given tone.
type RefineResult struct {
	RefinedText string `json:"refined_text"`
}

// ProcessVoiceResult is the output of the fused transcribe+refine call
// used by the primary capture flow to save a round trip.
type ProcessVoiceResult struct {
	Transcript  string `json:"transcript"`
	RefinedText string `json:"refined_text"`
	Title       string `json:"title"`
	DurationMs  int    `json:"duration_ms"`
}

// Transcribe uploads a recording and returns the verbatim transcript.
// Runs on the long timeout; transcription regularly takes tens of
// seconds.
func (s *PipelineService) Transcribe(ctx context.Context, audio AudioRef) (*TranscribeResult, error) {
	if audio.Body == nil {
		return nil, fmt.Errorf("no audio to transcribe")
	}
	var result TranscribeResult
	fields := map[string]string{"mime_type": audio.MimeType}
	if err := s.client.doMultipart(ctx, "/ai/transcribe", "audio", audio.FileName, audio.Body, fields, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type refineRequest struct {
	Transcript string      `json:"transcript"`
	Tone       models.Tone `json:"tone"`
}

// Refine polishes a transcript into post-ready text for the tone.
func (s *PipelineService) Refine(ctx context.Context, transcript string, tone models.Tone) (*RefineResult, error) {
	var result RefineResult
	body := refineRequest{Transcript: transcript, Tone: tone}
	if err := s.client.doJSON(ctx, http.MethodPost, "/ai/refine", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type changeToneRequest struct {
	Text string      `json:"text"`
	Tone models.Tone `json:"tone"`
}

// ChangeTone regenerates text in a different tone.
func (s *PipelineService) ChangeTone(ctx context.Context, text string, newTone models.Tone) (*RefineResult, error) {
	var result RefineResult
	body := changeToneRequest{Text: text, Tone: newTone}
	if err := s.client.doJSON(ctx, http.MethodPost, "/ai/change-tone", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type applyEditRequest struct {
	CurrentText string      `json:"current_text"`
	Instruction string      `json:"instruction"`
	Tone        models.Tone `json:"tone"`
}

// ApplyVoiceEdit rewrites currentText following a spoken instruction
// ("make the second paragraph shorter"), keeping the tone.
func (s *PipelineService) ApplyVoiceEdit(ctx context.Context, currentText, instructionTranscript string, tone models.Tone) (*RefineResult, error) {
	var result RefineResult
	body := applyEditRequest{CurrentText: currentText, Instruction: instructionTranscript, Tone: tone}
	if err := s.client.doJSON(ctx, http.MethodPost, "/ai/apply-edit", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProcessVoicePost uploads a recording and returns transcript, refined
// text and a suggested title in one round trip. Long timeout.
func (s *PipelineService) ProcessVoicePost(ctx context.Context, audio AudioRef, tone models.Tone) (*ProcessVoiceResult, error) {
	if audio.Body == nil {
		return nil, fmt.Errorf("no audio to process")
	}
	var result ProcessVoiceResult
	fields := map[string]string{
		"tone":      string(tone),
		"mime_type": audio.MimeType,
	}
	if err := s.client.doMultipart(ctx, "/ai/process-voice", "audio", audio.FileName, audio.Body, fields, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
