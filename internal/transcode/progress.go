package transcode

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ProgressTimePrefix marks the elapsed-time line of the encoder status stream
const ProgressTimePrefix = "out_time_us="

var (
	durationRegex = regexp.MustCompile(`Duration:\s*(\d{2,}):(\d{2}):(\d{2})\.(\d{2})`)
	timeRegex     = regexp.MustCompile(`time=(\d{2,}):(\d{2}):(\d{2})\.(\d{2})`)
)

// ProgressParser turns encoder status lines into percent values. The total
// duration is taken from the first Duration marker; until then nothing is
// reported. Reported percent never decreases.
type ProgressParser struct {
	totalDuration time.Duration
	elapsed       time.Duration
	last          int
}

// NewProgressParser creates a new progress parser
func NewProgressParser() *ProgressParser {
	return &ProgressParser{last: -1}
}

// TotalDuration returns the parsed source duration, 0 while unknown
func (pp *ProgressParser) TotalDuration() time.Duration {
	return pp.totalDuration
}

// Elapsed returns the latest elapsed-time marker
func (pp *ProgressParser) Elapsed() time.Duration {
	return pp.elapsed
}

// ParseLine consumes one status line and returns the percent to report, if any
func (pp *ProgressParser) ParseLine(line string) (int, bool) {
	line = strings.TrimSpace(line)

	if pp.totalDuration == 0 {
		if m := durationRegex.FindStringSubmatch(line); len(m) > 4 {
			pp.totalDuration = clockToDuration(m[1], m[2], m[3], m[4])
			return 0, false
		}
	}

	elapsed, ok := parseElapsed(line)
	if !ok {
		return 0, false
	}
	pp.elapsed = elapsed

	if pp.totalDuration <= 0 {
		return 0, false
	}

	percent := int(float64(elapsed) / float64(pp.totalDuration) * 100)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent < pp.last {
		return 0, false
	}
	pp.last = percent
	return percent, true
}

func parseElapsed(line string) (time.Duration, bool) {
	if strings.HasPrefix(line, ProgressTimePrefix) {
		us, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		return time.Duration(us) * time.Microsecond, true
	}

	if m := timeRegex.FindStringSubmatch(line); len(m) > 4 {
		return clockToDuration(m[1], m[2], m[3], m[4]), true
	}
	return 0, false
}

func clockToDuration(h, m, s, cs string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	centiseconds, _ := strconv.Atoi(cs)

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centiseconds)*10*time.Millisecond
}
