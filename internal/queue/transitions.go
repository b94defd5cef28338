package queue

import (
	"fmt"
	"strings"
	"time"
)

// statusTransitions is the complete edge set for the overall job lifecycle.
// pending -> failed is reachable through Cancel, failed -> pending through
// Retry; every other edge is driven by pipeline progress via ApplyStatus.
var statusTransitions = map[Status][]Status{
	StatusPending:         {StatusBuildingPrompt, StatusFailed},
	StatusBuildingPrompt:  {StatusGeneratingImage, StatusGeneratingVideo, StatusFailed},
	StatusGeneratingImage: {StatusDelivering, StatusFailed},
	StatusGeneratingVideo: {StatusDelivering, StatusFailed},
	StatusDelivering:      {StatusCompleted, StatusFailed},
	StatusFailed:          {StatusPending},
}

// narrationTransitions is the linear chain of the narration sub-workflow.
var narrationTransitions = map[NarrationStatus]NarrationStatus{
	NarrationNone:          NarrationScriptReady,
	NarrationScriptReady:   NarrationGeneratingTTS,
	NarrationGeneratingTTS: NarrationTTSReady,
	NarrationTTSReady:      NarrationComposing,
	NarrationComposing:     NarrationComposed,
}

// CanTransition reports whether the overall status may move from one state to
// another.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusUpdate carries the optional payload of a pipeline progress report.
type StatusUpdate struct {
	// OutputPaths are appended to the job's artifact list.
	OutputPaths []string
	// Error replaces the job's failure description when non-empty.
	Error string
}

// ApplyStatus validates and applies one edge of the status state machine.
// On any error the record is left untouched.
func (j *Job) ApplyStatus(next Status, update StatusUpdate) error {
	if _, ok := statusSet[next]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if !CanTransition(j.Status, next) {
		return fmt.Errorf("%w: cannot move job from %q to %q", ErrInvalidTransition, j.Status, next)
	}

	now := time.Now().UTC()
	j.Status = next
	j.UpdatedAt = now
	if len(update.OutputPaths) > 0 {
		j.OutputPaths = append(j.OutputPaths, update.OutputPaths...)
	}
	if update.Error != "" {
		j.Error = update.Error
	}

	if IsTerminalStatus(next) {
		completed := now
		j.CompletedAt = &completed
	} else {
		j.CompletedAt = nil
		if next == StatusPending {
			j.Error = ""
		}
	}
	return nil
}

// Cancel applies the dashboard cancel action: a pending job is failed with a
// fixed reason and stamped completed.
func (j *Job) Cancel() error {
	if j.Status != StatusPending {
		return fmt.Errorf("%w: only pending jobs can be cancelled (status is %q)", ErrInvalidTransition, j.Status)
	}
	return j.ApplyStatus(StatusFailed, StatusUpdate{Error: CancelReason})
}

// Retry applies the dashboard retry action: a failed job returns to pending
// with its error and completion timestamp cleared.
func (j *Job) Retry() error {
	if j.Status != StatusFailed {
		return fmt.Errorf("%w: only failed jobs can be retried (status is %q)", ErrInvalidTransition, j.Status)
	}
	return j.ApplyStatus(StatusPending, StatusUpdate{})
}

// NarrationUpdate carries the optional payload of a narration progress report.
type NarrationUpdate struct {
	AudioPath string
	VideoPath string
}

// ApplyNarration validates and applies one step of the narration chain.
func (j *Job) ApplyNarration(next NarrationStatus, update NarrationUpdate) error {
	if _, ok := narrationStatusSet[next]; !ok {
		return fmt.Errorf("%w: unknown narration status %q", ErrValidation, next)
	}
	if narrationTransitions[j.NarrationStatus] != next {
		return fmt.Errorf("%w: cannot move narration from %q to %q", ErrInvalidTransition, j.NarrationStatus, next)
	}

	j.NarrationStatus = next
	if path := strings.TrimSpace(update.AudioPath); path != "" {
		j.NarrationAudioPath = path
	}
	if path := strings.TrimSpace(update.VideoPath); path != "" {
		j.NarratedVideoPath = path
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// narrationEditable reports whether mode and script may still be rewritten.
func narrationEditable(status NarrationStatus) bool {
	return status == NarrationNone || status == NarrationScriptReady
}

// SetNarrationMode rewrites the narration mode and optionally the script.
// Both are frozen once TTS work has started. Selecting manual mode with a
// non-empty script advances the narration status to script_ready, skipping
// the script-generation step auto mode requires.
func (j *Job) SetNarrationMode(mode NarrationMode, script string) error {
	if _, ok := narrationModeSet[mode]; !ok {
		return fmt.Errorf("%w: unknown narration mode %q", ErrValidation, mode)
	}
	if !narrationEditable(j.NarrationStatus) {
		return fmt.Errorf("%w: Cannot change narration mode when status is '%s'", ErrConflict, j.NarrationStatus)
	}

	j.NarrationMode = mode
	if script = strings.TrimSpace(script); script != "" {
		j.NarrationScript = script
	}
	if mode == NarrationManual && j.NarrationScript != "" && j.NarrationStatus == NarrationNone {
		j.NarrationStatus = NarrationScriptReady
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}
