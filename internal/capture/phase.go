// Package capture drives a single recording session through its
// phases, from acquiring the microphone to handing the finished audio
// to the voice-post pipeline.
package capture

// Phase is the state of one capture session.
type Phase int

const (
	// PhaseIdle is the rest state before any recording starts.
	PhaseIdle Phase = iota
	// PhaseRecording means the microphone is live.
	PhaseRecording
	// PhaseProcessing means recording finished and the audio was
	// handed to the pipeline; the controller waits to be advanced.
	PhaseProcessing
	// PhaseDone is the terminal success state for the session.
	PhaseDone
	// PhaseError carries a human-readable message; the only way
	// forward is a fresh Start.
	PhaseError
)

// String returns the human-readable name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRecording:
		return "Recording"
	case PhaseProcessing:
		return "Processing"
	case PhaseDone:
		return "Done"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}
