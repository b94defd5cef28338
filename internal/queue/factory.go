package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateInput carries the caller-supplied portion of a new job. Type and
// Description are required; every other field falls back to a documented
// default.
type CreateInput struct {
	Type        string
	Description string

	Priority  int
	Source    Source
	Pipeline  string
	Scheduled *time.Time

	VoiceKey        string
	ImageModelAlias string
	VideoModelAlias string

	NarrationMode   string
	NarrationScript string

	Cast            []CastMember
	SceneCount      int
	FilmTemplateKey string
}

// NewJob builds a fully populated Job from partial input. It only constructs
// the value; persisting it is the caller's concern.
//
// Defaults: status pending, priority 0, source dashboard, pipeline
// higgsfield, narration mode auto, narration status none, empty output list,
// createdAt == updatedAt == now.
func NewJob(input CreateInput) (*Job, error) {
	jobType, ok := ParseJobType(input.Type)
	if !ok || strings.TrimSpace(input.Type) == "" {
		return nil, fmt.Errorf("%w: job type is required (got %q)", ErrValidation, input.Type)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.Priority < 0 {
		return nil, fmt.Errorf("%w: priority must not be negative (got %d)", ErrValidation, input.Priority)
	}

	source := input.Source
	if source == "" {
		source = SourceDashboard
	}
	if _, ok := sourceSet[source]; !ok {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, source)
	}

	pipeline := PipelineHiggsfield
	if strings.TrimSpace(input.Pipeline) != "" {
		parsed, ok := ParsePipeline(input.Pipeline)
		if !ok {
			return nil, fmt.Errorf("%w: unknown pipeline %q", ErrValidation, input.Pipeline)
		}
		pipeline = parsed
	}

	mode := NarrationAuto
	if strings.TrimSpace(input.NarrationMode) != "" {
		parsed, ok := ParseNarrationMode(input.NarrationMode)
		if !ok {
			return nil, fmt.Errorf("%w: unknown narration mode %q", ErrValidation, input.NarrationMode)
		}
		mode = parsed
	}

	now := time.Now().UTC()
	job := &Job{
		ID:              newJobID(now),
		Type:            jobType,
		Description:     description,
		Status:          StatusPending,
		Priority:        input.Priority,
		Source:          source,
		Pipeline:        pipeline,
		ScheduledAt:     input.Scheduled,
		VoiceKey:        strings.TrimSpace(input.VoiceKey),
		ImageModelAlias: strings.TrimSpace(input.ImageModelAlias),
		VideoModelAlias: strings.TrimSpace(input.VideoModelAlias),
		NarrationMode:   mode,
		NarrationScript: strings.TrimSpace(input.NarrationScript),
		NarrationStatus: NarrationNone,
		Cast:            input.Cast,
		SceneCount:      input.SceneCount,
		FilmTemplateKey: strings.TrimSpace(input.FilmTemplateKey),
		OutputPaths:     []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// A manual script supplied up front skips the script-generation step.
	if job.NarrationMode == NarrationManual && job.NarrationScript != "" {
		job.NarrationStatus = NarrationScriptReady
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// newJobID builds a collision-resistant opaque identifier. The timestamp
// prefix keeps ids roughly sortable in logs; the random suffix guards against
// same-millisecond submissions.
func newJobID(now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("job_%d_%s", now.UnixMilli(), suffix)
}
