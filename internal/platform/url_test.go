package platform

import (
	"errors"
	"testing"
)

func TestURLValidator_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"canonical watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"watch URL without www", "https://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"watch URL without scheme", "www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"watch URL with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123&index=2", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", true},
		{"short link with query", "https://youtu.be/dQw4w9WgXcQ?si=abc", true},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", true},
		{"nocookie embed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", true},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"collection URL shape", "https://www.youtube.com/playlist?list=PL123", true},
		{"empty string", "", false},
		{"whitespace only", "   \t ", false},
		{"missing platform domain", "https://example.com/watch?v=dQw4w9WgXcQ", false},
		{"look-alike domain", "https://youtube.com.evil.org/watch?v=dQw4w9WgXcQ", false},
		{"10 character id", "https://www.youtube.com/watch?v=dQw4w9WgXc", false},
		{"12 character id", "https://www.youtube.com/watch?v=dQw4w9WgXcQQ", false},
		{"10 character short link", "https://youtu.be/dQw4w9WgX", false},
		{"12 character short link", "https://youtu.be/dQw4w9WgXcQQ", false},
		{"channel URL", "https://www.youtube.com/channel/UC38IQsAvIsxxjztdMZQtwHA", false},
		{"handle URL", "https://www.youtube.com/@rickastley", false},
		{"watch without id", "https://www.youtube.com/watch", false},
		{"playlist without list", "https://www.youtube.com/playlist", false},
		{"ftp scheme", "ftp://youtu.be/dQw4w9WgXcQ", false},
		{"garbage", "not a url", false},
		{"id with illegal characters", "https://youtu.be/dQw4w9W$XcQ", false},
	}

	validator := NewURLValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.IsValid(tt.url)
			if result != tt.expected {
				t.Errorf("IsValid(%q) = %v, expected %v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123&index=3", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"youtube.com/embed/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://www.youtube.com/playlist?list=PL123", "https://www.youtube.com/playlist?list=PL123"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseVideoURL_Kinds(t *testing.T) {
	video, err := ParseVideoURL("https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if video.Kind != URLKindVideo || video.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected video dQw4w9WgXcQ, got %+v", video)
	}

	list, err := ParseVideoURL("https://www.youtube.com/playlist?list=PL123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if list.Kind != URLKindCollection || list.ListID != "PL123" {
		t.Errorf("Expected collection PL123, got %+v", list)
	}

	_, err = ParseVideoURL("https://example.com")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}
}
