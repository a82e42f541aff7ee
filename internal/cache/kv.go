// Package cache holds the client's durable local state: the auth
// token, a couple of UI flags, and an advisory snapshot of the last
// known draft list used when the backend is unreachable.
package cache

// KeyValue is the minimal persistence contract the client needs. Get
// returns ok=false for a missing key; Set overwrites unconditionally
// (last write wins).
type KeyValue interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Namespaced keys for everything the client persists locally.
const (
	KeyAuthToken          = "voicepost.auth.token"
	KeyThemeMode          = "voicepost.ui.theme"
	KeyOnboardingComplete = "voicepost.ui.onboarding_complete"
	KeyDraftSnapshot      = "voicepost.drafts.snapshot"
)
