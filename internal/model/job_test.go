package model

import (
	"testing"
	"time"
)

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		input    string
		expected Bitrate
		wantErr  bool
	}{
		{"192K", Bitrate192, false},
		{"192k", Bitrate192, false},
		{"320", Bitrate320, false},
		{" 48K ", Bitrate48, false},
		{"100K", 0, true},
		{"", 0, true},
		{"fast", 0, true},
	}

	for _, test := range tests {
		result, err := ParseBitrate(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseBitrate(%q) expected error, got %v", test.input, result)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBitrate(%q) unexpected error: %v", test.input, err)
			continue
		}
		if result != test.expected {
			t.Errorf("ParseBitrate(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestBitrate_Formatting(t *testing.T) {
	if Bitrate192.String() != "192K" {
		t.Errorf("Expected label 192K, got %s", Bitrate192.String())
	}
	if Bitrate192.EncoderArg() != "192k" {
		t.Errorf("Expected encoder arg 192k, got %s", Bitrate192.EncoderArg())
	}
	if Bitrate64.BitsPerSecond() != 64000 {
		t.Errorf("Expected 64000 bps, got %d", Bitrate64.BitsPerSecond())
	}
}

func TestJobRequest_Validate(t *testing.T) {
	valid := JobRequest{URL: "https://youtu.be/dQw4w9WgXcQ", TargetBitrate: Bitrate128, DestinationDirectory: "/tmp"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid request, got %v", err)
	}

	noURL := valid
	noURL.URL = "  "
	if err := noURL.Validate(); err == nil {
		t.Error("Expected error for empty URL")
	}

	badBitrate := valid
	badBitrate.TargetBitrate = 100
	if err := badBitrate.Validate(); err == nil {
		t.Error("Expected error for unsupported bitrate")
	}

	noDir := valid
	noDir.DestinationDirectory = ""
	if err := noDir.Validate(); err == nil {
		t.Error("Expected error for empty destination")
	}
}

func TestJob_StageDurations(t *testing.T) {
	start := time.Now()
	job := Job{
		DownloadStartedAt:  start,
		TranscodeStartedAt: start.Add(3 * time.Second),
		FinishedAt:         start.Add(5 * time.Second),
	}

	if job.DownloadDuration() != 3*time.Second {
		t.Errorf("Expected download duration 3s, got %v", job.DownloadDuration())
	}
	if job.TranscodeDuration() != 2*time.Second {
		t.Errorf("Expected transcode duration 2s, got %v", job.TranscodeDuration())
	}

	var empty Job
	if empty.DownloadDuration() != 0 || empty.TranscodeDuration() != 0 {
		t.Error("Expected zero durations for an unstarted job")
	}
}

func TestJob_GetDisplayTitle(t *testing.T) {
	job := Job{Request: JobRequest{URL: "https://youtu.be/dQw4w9WgXcQ"}}
	if job.GetDisplayTitle() != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("Expected URL fallback, got %s", job.GetDisplayTitle())
	}

	job.Title = "Never Gonna Give You Up"
	if job.GetDisplayTitle() != "Never Gonna Give You Up" {
		t.Errorf("Expected title, got %s", job.GetDisplayTitle())
	}
}

func TestErrorInfo_IsUserInputProblem(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected bool
	}{
		{ErrorKindInvalidURL, true},
		{ErrorKindPlaylistUnsupported, true},
		{ErrorKindNotFound, true},
		{ErrorKindNoTitle, true},
		{ErrorKindServiceError, false},
		{ErrorKindEncoderFailure, false},
	}

	for _, test := range tests {
		info := &ErrorInfo{Kind: test.kind}
		if info.IsUserInputProblem() != test.expected {
			t.Errorf("ErrorInfo(%s).IsUserInputProblem() = %v, expected %v", test.kind, !test.expected, test.expected)
		}
	}

	var nilInfo *ErrorInfo
	if nilInfo.IsUserInputProblem() {
		t.Error("nil ErrorInfo should not be a user input problem")
	}
	if nilInfo.Error() != "" {
		t.Error("nil ErrorInfo should render empty")
	}
}
