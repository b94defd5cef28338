package queue

import (
	"fmt"
	"strings"
	"time"
)

// JobType identifies the kind of content a job produces.
type JobType string

const (
	TypeImage       JobType = "image"
	TypeClip        JobType = "clip"
	TypeLesson      JobType = "lesson"
	TypeChat        JobType = "chat"
	TypeNewsContent JobType = "news-content"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending         Status = "pending"
	StatusBuildingPrompt  Status = "building_prompt"
	StatusGeneratingImage Status = "generating_image"
	StatusGeneratingVideo Status = "generating_video"
	StatusDelivering      Status = "delivering"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// Source records which channel submitted the job.
type Source string

const (
	SourceDashboard Source = "dashboard"
	SourceWhatsApp  Source = "whatsapp"
)

// Pipeline names the backend execution lane that will process a job.
type Pipeline string

const (
	PipelineHiggsfield   Pipeline = "higgsfield"
	PipelineLocalGPU     Pipeline = "local_gpu"
	PipelineContent      Pipeline = "content"
	PipelineDistribution Pipeline = "distribution"
)

// NarrationStatus tracks the optional voice-over workflow nested in a job.
type NarrationStatus string

const (
	NarrationNone          NarrationStatus = "none"
	NarrationScriptReady   NarrationStatus = "script_ready"
	NarrationGeneratingTTS NarrationStatus = "generating_tts"
	NarrationTTSReady      NarrationStatus = "tts_ready"
	NarrationComposing     NarrationStatus = "composing"
	NarrationComposed      NarrationStatus = "composed"
)

// NarrationMode selects between generated and user-supplied narration scripts.
type NarrationMode string

const (
	NarrationAuto   NarrationMode = "auto"
	NarrationManual NarrationMode = "manual"
)

// CancelReason is the error message set when a user cancels a pending job.
const CancelReason = "Cancelled from dashboard"

var allJobTypes = []JobType{TypeImage, TypeClip, TypeLesson, TypeChat, TypeNewsContent}

var allStatuses = []Status{
	StatusPending,
	StatusBuildingPrompt,
	StatusGeneratingImage,
	StatusGeneratingVideo,
	StatusDelivering,
	StatusCompleted,
	StatusFailed,
}

var allSources = []Source{SourceDashboard, SourceWhatsApp}

var allPipelines = []Pipeline{PipelineHiggsfield, PipelineLocalGPU, PipelineContent, PipelineDistribution}

var allNarrationStatuses = []NarrationStatus{
	NarrationNone,
	NarrationScriptReady,
	NarrationGeneratingTTS,
	NarrationTTSReady,
	NarrationComposing,
	NarrationComposed,
}

var allNarrationModes = []NarrationMode{NarrationAuto, NarrationManual}

func makeSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

var (
	jobTypeSet         = makeSet(allJobTypes)
	statusSet          = makeSet(allStatuses)
	sourceSet          = makeSet(allSources)
	pipelineSet        = makeSet(allPipelines)
	narrationStatusSet = makeSet(allNarrationStatuses)
	narrationModeSet   = makeSet(allNarrationModes)
)

var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusFailed:    {},
}

var processingStatuses = map[Status]struct{}{
	StatusBuildingPrompt:  {},
	StatusGeneratingImage: {},
	StatusGeneratingVideo: {},
	StatusDelivering:      {},
}

// CastMember pairs a lesson character with the voice that narrates it.
type CastMember struct {
	Character string `json:"character"`
	Voice     string `json:"voice"`
}

// Job is one unit of requested generation work tracked through the pipeline.
type Job struct {
	ID          string  `json:"id"`
	Type        JobType `json:"type"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	Priority    int     `json:"priority"`
	Source      Source  `json:"source"`

	Pipeline    Pipeline   `json:"pipeline"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`

	VoiceKey        string `json:"voiceKey,omitempty"`
	ImageModelAlias string `json:"imageModelAlias,omitempty"`
	VideoModelAlias string `json:"videoModelAlias,omitempty"`

	NarrationMode      NarrationMode   `json:"narrationMode"`
	NarrationScript    string          `json:"narrationScript,omitempty"`
	NarrationStatus    NarrationStatus `json:"narrationStatus"`
	NarrationAudioPath string          `json:"narrationAudioPath,omitempty"`
	NarratedVideoPath  string          `json:"narratedVideoPath,omitempty"`

	Cast            []CastMember `json:"cast,omitempty"`
	SceneCount      int          `json:"sceneCount,omitempty"`
	FilmTemplateKey string       `json:"filmTemplateKey,omitempty"`

	OutputPaths []string `json:"outputPaths"`
	Error       string   `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseJobType converts a string into a known JobType.
func ParseJobType(value string) (JobType, bool) {
	normalized := JobType(strings.ToLower(strings.TrimSpace(value)))
	_, ok := jobTypeSet[normalized]
	return normalized, ok
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseSource converts a string into a known Source.
func ParseSource(value string) (Source, bool) {
	normalized := Source(strings.ToLower(strings.TrimSpace(value)))
	_, ok := sourceSet[normalized]
	return normalized, ok
}

// ParsePipeline converts a string into a known Pipeline.
func ParsePipeline(value string) (Pipeline, bool) {
	normalized := Pipeline(strings.ToLower(strings.TrimSpace(value)))
	_, ok := pipelineSet[normalized]
	return normalized, ok
}

// ParseNarrationStatus converts a string into a known NarrationStatus.
func ParseNarrationStatus(value string) (NarrationStatus, bool) {
	normalized := NarrationStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := narrationStatusSet[normalized]
	return normalized, ok
}

// ParseNarrationMode converts a string into a known NarrationMode.
func ParseNarrationMode(value string) (NarrationMode, bool) {
	normalized := NarrationMode(strings.ToLower(strings.TrimSpace(value)))
	_, ok := narrationModeSet[normalized]
	return normalized, ok
}

// IsTerminalStatus reports whether a status ends the job lifecycle.
func IsTerminalStatus(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// IsTerminal reports whether the job has reached a terminal status.
func (j *Job) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// IsProcessing reports whether the job is actively moving through the pipeline.
func (j *Job) IsProcessing() bool {
	_, ok := processingStatuses[j.Status]
	return ok
}

// Clone returns a deep copy so callers can hand records across boundaries
// without aliasing the stored collection.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.ScheduledAt != nil {
		scheduled := *j.ScheduledAt
		cp.ScheduledAt = &scheduled
	}
	if j.CompletedAt != nil {
		completed := *j.CompletedAt
		cp.CompletedAt = &completed
	}
	if j.Cast != nil {
		cp.Cast = make([]CastMember, len(j.Cast))
		copy(cp.Cast, j.Cast)
	}
	if j.OutputPaths != nil {
		cp.OutputPaths = make([]string, len(j.OutputPaths))
		copy(cp.OutputPaths, j.OutputPaths)
	}
	return &cp
}

// Validate checks every closed field on a record. It is applied at creation
// and again when collections are deserialized, so a store can never hand out
// a record carrying an unknown enum value.
func (j *Job) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: nil job", ErrValidation)
	}
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("%w: job id is empty", ErrValidation)
	}
	if _, ok := jobTypeSet[j.Type]; !ok {
		return fmt.Errorf("%w: unknown job type %q", ErrValidation, j.Type)
	}
	if strings.TrimSpace(j.Description) == "" {
		return fmt.Errorf("%w: description is empty", ErrValidation)
	}
	if _, ok := statusSet[j.Status]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, j.Status)
	}
	if _, ok := sourceSet[j.Source]; !ok {
		return fmt.Errorf("%w: unknown source %q", ErrValidation, j.Source)
	}
	if _, ok := pipelineSet[j.Pipeline]; !ok {
		return fmt.Errorf("%w: unknown pipeline %q", ErrValidation, j.Pipeline)
	}
	if _, ok := narrationStatusSet[j.NarrationStatus]; !ok {
		return fmt.Errorf("%w: unknown narration status %q", ErrValidation, j.NarrationStatus)
	}
	if _, ok := narrationModeSet[j.NarrationMode]; !ok {
		return fmt.Errorf("%w: unknown narration mode %q", ErrValidation, j.NarrationMode)
	}
	// Priority is only checked on input (NewJob, SetPriority); a stored
	// record keeps whatever value was persisted.
	if j.IsTerminal() != (j.CompletedAt != nil) {
		return fmt.Errorf("%w: completedAt must be set exactly for terminal statuses", ErrValidation)
	}
	return nil
}
