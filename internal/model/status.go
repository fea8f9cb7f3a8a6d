package model

// JobState represents the lifecycle state of a single job
type JobState string

const (
	// JobStateIdle means no URL has been submitted yet
	JobStateIdle JobState = "Idle"

	// JobStateValidating means the URL passed validation and the title is being fetched
	JobStateValidating JobState = "Validating"

	// JobStateInvalid means the submitted URL was rejected by the validator
	JobStateInvalid JobState = "Invalid"

	// JobStateMetadataReady means the title is known and the job can be started
	JobStateMetadataReady JobState = "MetadataReady"

	// JobStateDownloading means the audio stream is being downloaded
	JobStateDownloading JobState = "Downloading"

	// JobStateDownloaded means the download finished and transcoding is about to start
	JobStateDownloaded JobState = "Downloaded"

	// JobStateTranscoding means the encoder is running
	JobStateTranscoding JobState = "Transcoding"

	// JobStateCompleted means the final MP3 is in place
	JobStateCompleted JobState = "Completed"

	// JobStateErrored means a stage failed
	JobStateErrored JobState = "Errored"

	// JobStateCancelled means the user cancelled an in-flight stage
	JobStateCancelled JobState = "Cancelled"
)

// String returns the string representation of JobState
func (s JobState) String() string {
	return string(s)
}

// IsActive returns true while the download or transcode stage owns the job
func (s JobState) IsActive() bool {
	return s == JobStateDownloading || s == JobStateDownloaded || s == JobStateTranscoding
}

// IsInFlight returns true if a background worker is running for the job
func (s JobState) IsInFlight() bool {
	return s == JobStateValidating || s.IsActive()
}

// IsFinished returns true if the job is in a terminal state
func (s JobState) IsFinished() bool {
	return s == JobStateCompleted || s == JobStateErrored || s == JobStateInvalid || s == JobStateCancelled
}

// CanTransition reports whether the state machine allows moving from s to next.
func (s JobState) CanTransition(next JobState) bool {
	switch s {
	case JobStateIdle:
		return next == JobStateValidating || next == JobStateInvalid
	case JobStateValidating:
		return next == JobStateMetadataReady || next == JobStateInvalid ||
			next == JobStateErrored || next == JobStateCancelled
	case JobStateMetadataReady:
		return next == JobStateDownloading || next == JobStateErrored
	case JobStateDownloading:
		return next == JobStateDownloaded || next == JobStateErrored || next == JobStateCancelled
	case JobStateDownloaded:
		return next == JobStateTranscoding || next == JobStateErrored || next == JobStateCancelled
	case JobStateTranscoding:
		return next == JobStateCompleted || next == JobStateErrored || next == JobStateCancelled
	default:
		return false
	}
}

// Stage identifies which step of the pipeline a progress snapshot belongs to
type Stage string

const (
	StageValidating    Stage = "Validating"
	StageFetchingTitle Stage = "FetchingTitle"
	StageDownloading   Stage = "Downloading"
	StageTranscoding   Stage = "Transcoding"
)

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}
