package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/voicepost/voicepost/internal/models"
)

// PublishService wraps the backend's LinkedIn publishing endpoints.
type PublishService struct {
	client *Client
}

// PublishResult reports the outcome of a publish-now or schedule call.
type PublishResult struct {
	Status      models.Status `json:"status"`
	PublishedAt *time.Time    `json:"published_at"`
	PostURL     string        `json:"post_url"`
}

// MediaUploadResult carries the asset URN the backend registered for an
// uploaded image or video.
type MediaUploadResult struct {
	AssetURN string `json:"asset_urn"`
}

// Now publishes the draft immediately.
func (s *PublishService) Now(ctx context.Context, draftID string) (*PublishResult, error) {
	var result PublishResult
	if err := s.client.doJSON(ctx, http.MethodPost, "/publish/"+draftID+"/now", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type schedulePublishRequest struct {
	ScheduledAt string `json:"scheduledAt"`
}

// Schedule queues the draft for publishing at the given instant.
func (s *PublishService) Schedule(ctx context.Context, draftID string, at time.Time) (*PublishResult, error) {
	var result PublishResult
	body := schedulePublishRequest{ScheduledAt: at.UTC().Format(time.RFC3339)}
	if err := s.client.doJSON(ctx, http.MethodPost, "/publish/"+draftID+"/schedule", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadMedia uploads one attachment and returns its asset URN.
func (s *PublishService) UploadMedia(ctx context.Context, fileName, mimeType string, body io.Reader) (*MediaUploadResult, error) {
	var result MediaUploadResult
	fields := map[string]string{"mime_type": mimeType}
	if err := s.client.doMultipart(ctx, "/publish/media/upload", "media", fileName, body, fields, false, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
