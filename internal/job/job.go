package job

import (
	"time"
)

// Status is the persisted state-machine position of a recording.
type Status string

const (
	StatusNew          Status = "new"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusStructuring  Status = "structuring"
	StatusStructured   Status = "structured"
	StatusPublishing   Status = "publishing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Stage names one pipeline unit of work.
type Stage string

const (
	StageDownload   Stage = "download"
	StageTranscribe Stage = "transcribe"
	StageStructure  Stage = "structure"
	StagePublish    Stage = "publish"
)

// Source values for a job.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Job is the durable status record for one recording. One row per
// recording id; status is mutated only by the orchestrator.
type Job struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Filename string `json:"filename"`
	Source   string `json:"source"`

	Status      Status `json:"status"`
	FailedStage Stage  `json:"failedStage,omitempty"`
	FailureKind string `json:"failureKind,omitempty"`
	LastError   string `json:"lastError,omitempty"`

	DownloadAttempts   int `json:"downloadAttempts"`
	TranscribeAttempts int `json:"transcribeAttempts"`
	StructureAttempts  int `json:"structureAttempts"`
	PublishAttempts    int `json:"publishAttempts"`

	AudioPath           string `json:"audioPath,omitempty"`
	AudioSize           int64  `json:"audioSize,omitempty"`
	AudioFingerprint    string `json:"audioFingerprint,omitempty"`
	TranscriptPath      string `json:"transcriptPath,omitempty"`
	OutlinePath         string `json:"outlinePath,omitempty"`
	DocumentPath        string `json:"documentPath,omitempty"`
	DocumentFingerprint string `json:"documentFingerprint,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Terminal reports whether no further automatic stage execution happens
// without an explicit reprocess request.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// InProgress reports whether the status is a mid-stage variant. Such a
// status found at startup means the process died while the stage ran.
func (s Status) InProgress() bool {
	switch s {
	case StatusDownloading, StatusTranscribing, StatusStructuring, StatusPublishing:
		return true
	}
	return false
}

// NextStage returns the stage required to advance the job from its current
// status, or "" when the job is terminal or mid-stage.
func (j *Job) NextStage() Stage {
	switch j.Status {
	case StatusNew:
		return StageDownload
	case StatusDownloaded:
		return StageTranscribe
	case StatusTranscribed:
		return StageStructure
	case StatusStructured:
		return StagePublish
	}
	return ""
}

// stageStates maps a stage to its in-progress and success statuses.
var stageStates = map[Stage]struct {
	running Status
	done    Status
}{
	StageDownload:   {StatusDownloading, StatusDownloaded},
	StageTranscribe: {StatusTranscribing, StatusTranscribed},
	StageStructure:  {StatusStructuring, StatusStructured},
	StagePublish:    {StatusPublishing, StatusCompleted},
}

// RunningStatus returns the in-progress status for a stage.
func (s Stage) RunningStatus() Status {
	return stageStates[s].running
}

// DoneStatus returns the status reached when a stage succeeds.
func (s Stage) DoneStatus() Status {
	return stageStates[s].done
}

// Rollback maps a mid-stage status to the last completed status. The prior
// stage's artifact is still valid, so recovery must not discard it.
func Rollback(s Status) Status {
	switch s {
	case StatusDownloading:
		return StatusNew
	case StatusTranscribing:
		return StatusDownloaded
	case StatusStructuring:
		return StatusTranscribed
	case StatusPublishing:
		return StatusStructured
	}
	return s
}

// ReentryStatus derives where a reprocessed or artifact-trimmed job resumes,
// from artifact presence alone. A usable transcript wins over the audio file
// even when the audio is newer: transcripts are expensive to regenerate and
// the recording itself is immutable at the source.
func (j *Job) ReentryStatus(transcriptOK, audioOK bool) Status {
	if transcriptOK {
		return StatusTranscribed
	}
	if audioOK {
		return StatusDownloaded
	}
	return StatusNew
}

// Attempts returns the attempt counter for a stage.
func (j *Job) Attempts(s Stage) int {
	switch s {
	case StageDownload:
		return j.DownloadAttempts
	case StageTranscribe:
		return j.TranscribeAttempts
	case StageStructure:
		return j.StructureAttempts
	case StagePublish:
		return j.PublishAttempts
	}
	return 0
}

// BumpAttempts increments the attempt counter for a stage.
func (j *Job) BumpAttempts(s Stage) {
	switch s {
	case StageDownload:
		j.DownloadAttempts++
	case StageTranscribe:
		j.TranscribeAttempts++
	case StageStructure:
		j.StructureAttempts++
	case StagePublish:
		j.PublishAttempts++
	}
}
