package models

import "errors"

// MediaType distinguishes the two attachment kinds the backend accepts.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MaxImageAttachments is the backend's per-post image cap.
const MaxImageAttachments = 9

var (
	// ErrTooManyImages is returned when a draft already carries the
	// maximum number of image attachments.
	ErrTooManyImages = errors.New("draft already has the maximum number of images")

	// ErrVideoExclusive is returned when mixing a video with any other
	// attachment: a draft carries up to 9 images or exactly 1 video,
	// never both.
	ErrVideoExclusive = errors.New("a draft cannot mix video and image attachments")

	// ErrUnknownMediaType is returned for an attachment type that is
	// neither image nor video.
	ErrUnknownMediaType = errors.New("unknown media attachment type")
)

// MediaAttachment references one image or video attached to a draft.
type MediaAttachment struct {
	URI      string    `json:"uri"`
	Type     MediaType `json:"type"`
	MimeType string    `json:"mime_type"`
	FileName string    `json:"file_name"`
	AssetURN string    `json:"asset_urn,omitempty"`
	Uploaded bool      `json:"uploaded"`
}

// CanAttach reports whether next may join existing on a single draft.
// The valid states are: no attachments, up to MaxImageAttachments
// images, or exactly one video. The store enforces this before
// persisting; the entity only states the rule.
func CanAttach(existing []MediaAttachment, next MediaAttachment) error {
	switch next.Type {
	case MediaImage:
		images := 0
		for _, m := range existing {
			if m.Type == MediaVideo {
				return ErrVideoExclusive
			}
			images++
		}
		if images >= MaxImageAttachments {
			return ErrTooManyImages
		}
		return nil
	case MediaVideo:
		if len(existing) > 0 {
			return ErrVideoExclusive
		}
		return nil
	default:
		return ErrUnknownMediaType
	}
}
