package bot

import (
	"context"
	"time"

	"voicescribe/media"
	"voicescribe/whapi"
)

// Gateway is the outbound messaging collaborator.
type Gateway interface {
	SendText(ctx context.Context, to int64, text string, markup *whapi.Markup) error
	SendDocument(ctx context.Context, to int64, filename, path, caption string) error
	FetchFile(ctx context.Context, url string) ([]byte, error)
}

// Assistant is the language-model collaborator.
type Assistant interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	Answer(ctx context.Context, contextText, question string) (string, error)
}

// Segmenter probes media duration and exports bounded chunks.
type Segmenter interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
	Export(ctx context.Context, src string, span media.Span, dst string) error
}
