package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// SegmentLength is the per-chunk duration bound. The transcription API has a
// practical request-size ceiling, so anything longer is sliced.
const SegmentLength = 25 * time.Minute

const sampleRate = 16000
const bitrate = "128k"

// Span is one bounded-duration slice of the source media.
type Span struct {
	Index    int
	Start    time.Duration
	Duration time.Duration
}

// Plan splits a total duration into consecutive spans of at most
// SegmentLength. Inputs at or below the bound yield exactly one span.
func Plan(total time.Duration) []Span {
	if total <= 0 {
		return []Span{{Index: 0, Start: 0, Duration: total}}
	}

	var spans []Span
	for start := time.Duration(0); start < total; start += SegmentLength {
		length := SegmentLength
		if start+length > total {
			length = total - start
		}
		spans = append(spans, Span{Index: len(spans), Start: start, Duration: length})
	}
	return spans
}

// Exporter probes and slices media with ffmpeg/ffprobe.
type Exporter struct {
	FFmpegPath  string
	FFprobePath string
}

func NewExporter() *Exporter {
	return &Exporter{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

// Probe returns the media duration.
func (e *Exporter) Probe(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, e.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, stderr.String())
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parsing duration %q: %w", path, out.String(), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Export decodes one span of the source, normalizes it to a mono 16kHz mp3
// and writes it to dst. The compact encoding keeps the upload small for the
// transcription call.
func (e *Exporter) Export(ctx context.Context, src string, span Span, dst string) error {
	cmd := exec.CommandContext(ctx, e.FFmpegPath,
		"-y",
		"-v", "error",
		"-ss", formatSeconds(span.Start),
		"-t", formatSeconds(span.Duration),
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-b:a", bitrate,
		"-f", "mp3",
		dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg export %s span %d: %w: %s", src, span.Index, err, stderr.String())
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
