package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/voicepost/voicepost/internal/api"
)

// Recorder abstracts the platform recording primitive. Begin acquires
// the microphone and returns a live handle; acquisition failure (for
// example a denied permission) is reported as an error without ever
// entering the recording phase.
type Recorder interface {
	Begin(ctx context.Context) (Handle, error)
}

// Handle is one in-progress recording. Finish finalizes the capture
// and returns the audio; Release frees the underlying platform
// resource. The controller guarantees Release is invoked exactly once
// per session, whichever path the session takes.
type Handle interface {
	Finish() (api.AudioRef, error)
	Release() error
}

// CompletionFunc receives the finished audio when a session moves to
// processing. The controller does not call the AI pipeline itself; the
// receiver runs the pipeline and then advances the controller with
// Complete or Fail.
type CompletionFunc func(audio api.AudioRef, duration time.Duration)

// Config bounds a recording session.
type Config struct {
	MinDuration time.Duration
	MaxDuration time.Duration
}

// DefaultConfig matches the product's 1s floor and 5min cap.
func DefaultConfig() Config {
	return Config{
		MinDuration: time.Second,
		MaxDuration: 5 * time.Minute,
	}
}

// Controller is the state machine for one recording UI surface. Every
// screen reads phase from here instead of deriving its own flags.
type Controller struct {
	recorder   Recorder
	cfg        Config
	onComplete CompletionFunc
	now        func() time.Time
	log        *logrus.Entry

	mu        sync.Mutex
	phase     Phase
	sessionID string
	handle    Handle
	released  bool
	startedAt time.Time
	duration  time.Duration
	errMsg    string
	autoStop  *time.Timer
}

// NewController creates an idle controller. onComplete may be nil when
// the caller polls instead.
func NewController(recorder Recorder, cfg Config, onComplete CompletionFunc) *Controller {
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = DefaultConfig().MinDuration
	}
	if cfg.MaxDuration <= cfg.MinDuration {
		cfg.MaxDuration = DefaultConfig().MaxDuration
	}
	return &Controller{
		recorder:   recorder,
		cfg:        cfg,
		onComplete: onComplete,
		now:        time.Now,
		log:        logrus.WithField("component", "capture"),
		phase:      PhaseIdle,
	}
}

// Start begins recording. Valid from idle and error (retry); a failure
// to acquire the microphone lands in the error phase directly.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseIdle && c.phase != PhaseError {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot start recording from %s", phase)
	}
	c.mu.Unlock()

	handle, err := c.recorder.Begin(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseError
		c.errMsg = fmt.Sprintf("could not start recording: %v", err)
		return err
	}

	c.sessionID = uuid.New().String()
	c.handle = handle
	c.released = false
	c.startedAt = c.now()
	c.duration = 0
	c.errMsg = ""
	c.phase = PhaseRecording

	session := c.sessionID
	c.autoStop = time.AfterFunc(c.cfg.MaxDuration, func() {
		c.stopSession(session, true)
	})

	c.log.WithField("session", session).Debug("recording started")
	return nil
}

// Stop ends the recording manually. Too-short recordings land in the
// error phase instead of processing; the handle is released either way.
func (c *Controller) Stop() error {
	c.mu.Lock()
	session := c.sessionID
	c.mu.Unlock()
	return c.stopSession(session, false)
}

func (c *Controller) stopSession(session string, auto bool) error {
	c.mu.Lock()
	if c.phase != PhaseRecording || c.sessionID != session {
		c.mu.Unlock()
		if auto {
			return nil
		}
		return fmt.Errorf("no recording in progress")
	}
	c.stopAutoStopLocked()
	c.duration = c.now().Sub(c.startedAt)
	if auto {
		c.duration = c.cfg.MaxDuration
	}

	audio, err := c.handle.Finish()
	c.releaseHandleLocked()

	if err != nil {
		c.phase = PhaseError
		c.errMsg = fmt.Sprintf("could not finish recording: %v", err)
		c.mu.Unlock()
		return err
	}
	if c.duration < c.cfg.MinDuration {
		c.phase = PhaseError
		c.errMsg = fmt.Sprintf("recording too short, hold for at least %s", c.cfg.MinDuration)
		c.mu.Unlock()
		return fmt.Errorf("recording below minimum duration")
	}

	c.phase = PhaseProcessing
	duration := c.duration
	callback := c.onComplete
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"session": session, "auto": auto}).Debug("recording stopped")
	if callback != nil {
		callback(audio, duration)
	}
	return nil
}

// Cancel discards an in-progress recording: the handle is released,
// duration resets to zero, no completion callback fires, and the
// controller returns to idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseRecording {
		return
	}
	c.stopAutoStopLocked()
	c.releaseHandleLocked()
	c.duration = 0
	c.errMsg = ""
	c.phase = PhaseIdle
}

// Complete advances processing to done; called by the owner once the
// pipeline reports success.
func (c *Controller) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseProcessing {
		c.phase = PhaseDone
	}
}

// Fail moves the session to the error phase with a message, releasing
// the handle if one is still held.
func (c *Controller) Fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAutoStopLocked()
	c.releaseHandleLocked()
	c.phase = PhaseError
	c.errMsg = message
}

// Reset is the user's "record again": done or error back to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseDone && c.phase != PhaseError {
		return
	}
	c.duration = 0
	c.errMsg = ""
	c.phase = PhaseIdle
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Duration is the recorded length: live while recording, final after.
func (c *Controller) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseRecording {
		return c.now().Sub(c.startedAt)
	}
	return c.duration
}

// ErrMsg returns the message carried by the error phase.
func (c *Controller) ErrMsg() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// SessionID identifies the current (or last) recording attempt.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// releaseHandleLocked frees the platform recording resource, once.
func (c *Controller) releaseHandleLocked() {
	if c.handle == nil || c.released {
		return
	}
	if err := c.handle.Release(); err != nil {
		c.log.WithError(err).Warn("failed to release recording handle")
	}
	c.released = true
	c.handle = nil
}

func (c *Controller) stopAutoStopLocked() {
	if c.autoStop != nil {
		c.autoStop.Stop()
		c.autoStop = nil
	}
}
