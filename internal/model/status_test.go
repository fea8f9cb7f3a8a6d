package model

import "testing"

func TestJobState_IsActive(t *testing.T) {
	tests := []struct {
		state    JobState
		expected bool
	}{
		{JobStateIdle, false},
		{JobStateValidating, false},
		{JobStateInvalid, false},
		{JobStateMetadataReady, false},
		{JobStateDownloading, true},
		{JobStateDownloaded, true},
		{JobStateTranscoding, true},
		{JobStateCompleted, false},
		{JobStateErrored, false},
		{JobStateCancelled, false},
	}

	for _, test := range tests {
		result := test.state.IsActive()
		if result != test.expected {
			t.Errorf("JobState(%s).IsActive() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestJobState_IsFinished(t *testing.T) {
	tests := []struct {
		state    JobState
		expected bool
	}{
		{JobStateIdle, false},
		{JobStateValidating, false},
		{JobStateInvalid, true},
		{JobStateMetadataReady, false},
		{JobStateDownloading, false},
		{JobStateDownloaded, false},
		{JobStateTranscoding, false},
		{JobStateCompleted, true},
		{JobStateErrored, true},
		{JobStateCancelled, true},
	}

	for _, test := range tests {
		result := test.state.IsFinished()
		if result != test.expected {
			t.Errorf("JobState(%s).IsFinished() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestJobState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to JobState
		expected bool
	}{
		{JobStateIdle, JobStateValidating, true},
		{JobStateIdle, JobStateDownloading, false},
		{JobStateValidating, JobStateMetadataReady, true},
		{JobStateValidating, JobStateErrored, true},
		{JobStateValidating, JobStateCancelled, true},
		{JobStateMetadataReady, JobStateDownloading, true},
		{JobStateMetadataReady, JobStateTranscoding, false},
		{JobStateDownloading, JobStateDownloaded, true},
		{JobStateDownloading, JobStateTranscoding, false},
		{JobStateDownloaded, JobStateTranscoding, true},
		{JobStateTranscoding, JobStateCompleted, true},
		{JobStateTranscoding, JobStateCancelled, true},
		{JobStateCompleted, JobStateCancelled, false},
		{JobStateCancelled, JobStateCancelled, false},
		{JobStateErrored, JobStateDownloading, false},
	}

	for _, test := range tests {
		result := test.from.CanTransition(test.to)
		if result != test.expected {
			t.Errorf("%s -> %s allowed = %v, expected %v", test.from, test.to, result, test.expected)
		}
	}
}

func TestJobState_String(t *testing.T) {
	state := JobStateTranscoding
	expected := "Transcoding"
	result := state.String()

	if result != expected {
		t.Errorf("JobState.String() = %s, expected %s", result, expected)
	}
}
