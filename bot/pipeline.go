package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voicescribe/media"
	"voicescribe/models"
	"voicescribe/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type jobStatus string

const (
	jobDone      jobStatus = "done"
	jobCancelled jobStatus = "cancelled"
	jobFailed    jobStatus = "failed"
)

const transcriptionFilename = "transcription.txt"

// defaultJobTimeout bounds a whole job. Hour-long media through download,
// chunked transcription and summarization fits comfortably; a hang does not.
const defaultJobTimeout = 2 * time.Hour

// Pipeline runs the media job: download, segment, transcribe per chunk,
// summarize, persist and notify. Cancellation is cooperative: between stages
// and between chunks the user's persisted state is re-read, and anything
// other than awaiting-media aborts the job.
type Pipeline struct {
	store      store.UserStore
	gateway    Gateway
	ai         Assistant
	segmenter  Segmenter
	guard      *Guard
	workDir    string
	jobTimeout time.Duration
	log        zerolog.Logger
}

func NewPipeline(
	userStore store.UserStore,
	gateway Gateway,
	assistant Assistant,
	segmenter Segmenter,
	guard *Guard,
	workDir string,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		store:      userStore,
		gateway:    gateway,
		ai:         assistant,
		segmenter:  segmenter,
		guard:      guard,
		workDir:    workDir,
		jobTimeout: defaultJobTimeout,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one admitted job to a terminal status. The guard slot is
// released on every exit path, including panics unwinding through the defer.
func (p *Pipeline) Run(user *models.User, msg models.Message) jobStatus {
	defer p.guard.Release(user.Number)

	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	log := p.log.With().
		Int64("user", user.Number).
		Str("job_id", uuid.NewString()).
		Logger()

	status, err := p.run(ctx, log, user, msg)
	switch status {
	case jobDone:
		log.Info().Msg("job done")
	case jobCancelled:
		log.Info().Msg("job cancelled by user")
	case jobFailed:
		log.Error().Err(err).Msg("job failed")
		if sendErr := p.gateway.SendText(ctx, user.Number, errorInProcessMessage, newAudioKeyboard); sendErr != nil {
			log.Error().Err(sendErr).Msg("error notice failed")
		}
	}
	return status
}

func (p *Pipeline) run(ctx context.Context, log zerolog.Logger, user *models.User, msg models.Message) (jobStatus, error) {
	mediaPath, err := p.download(ctx, msg)
	if err != nil {
		return jobFailed, err
	}
	defer p.removeFile(log, mediaPath)

	total, err := p.segmenter.Probe(ctx, mediaPath)
	if err != nil {
		return jobFailed, err
	}
	spans := media.Plan(total)
	log.Info().Dur("duration", total).Int("chunks", len(spans)).Msg("media segmented")

	parts := make([]string, 0, len(spans))
	for _, span := range spans {
		if p.cancelled(log, user.Number) {
			return jobCancelled, nil
		}
		text, err := p.transcribeSpan(ctx, log, mediaPath, span)
		if err != nil {
			return jobFailed, err
		}
		parts = append(parts, text)
	}

	// Chunk order is the input order; the join is not reorderable.
	transcript := strings.Join(parts, " ")

	if p.cancelled(log, user.Number) {
		return jobCancelled, nil
	}

	summary, err := p.ai.Summarize(ctx, transcript)
	if err != nil {
		return jobFailed, err
	}

	if p.cancelled(log, user.Number) {
		return jobCancelled, nil
	}
	if strings.TrimSpace(transcript) == "" || strings.TrimSpace(summary) == "" {
		return jobFailed, fmt.Errorf("empty transcript or summary")
	}

	if err := p.finalize(ctx, log, user, transcript, summary); err != nil {
		return jobFailed, err
	}
	return jobDone, nil
}

func (p *Pipeline) download(ctx context.Context, msg models.Message) (string, error) {
	data, err := p.gateway.FetchFile(ctx, msg.Link)
	if err != nil {
		return "", fmt.Errorf("downloading media: %w", err)
	}

	file, err := os.CreateTemp(p.workDir, "media-*")
	if err != nil {
		return "", fmt.Errorf("creating media temp file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("writing media temp file: %w", err)
	}
	return file.Name(), nil
}

// transcribeSpan exports one chunk, transcribes it and removes the chunk file
// even when transcription fails.
func (p *Pipeline) transcribeSpan(ctx context.Context, log zerolog.Logger, src string, span media.Span) (string, error) {
	chunkPath := filepath.Join(p.workDir, "chunk-"+uuid.NewString()+".mp3")
	defer p.removeFile(log, chunkPath)

	if err := p.segmenter.Export(ctx, src, span, chunkPath); err != nil {
		return "", err
	}

	text, err := p.ai.Transcribe(ctx, chunkPath)
	if err != nil {
		return "", fmt.Errorf("transcribing chunk %d: %w", span.Index, err)
	}
	log.Debug().Int("chunk", span.Index).Msg("chunk transcribed")
	return text, nil
}

func (p *Pipeline) finalize(ctx context.Context, log zerolog.Logger, user *models.User, transcript, summary string) error {
	fresh, err := p.store.Get(user.Number)
	if err != nil {
		return fmt.Errorf("refreshing user: %w", err)
	}
	if fresh == nil {
		return fmt.Errorf("user %d vanished mid-job", user.Number)
	}

	if _, err := p.store.Update(user.Number, map[string]interface{}{
		"state":                   "",
		"last_transcription_text": transcript,
		"last_summary_text":       summary,
		"uploaded_audios":         fresh.UploadedAudios + 1,
	}); err != nil {
		return fmt.Errorf("persisting job result: %w", err)
	}

	transcriptPath, err := p.writeTranscript(transcript)
	if err != nil {
		return err
	}
	defer p.removeFile(log, transcriptPath)

	if err := p.gateway.SendDocument(ctx, user.Number, transcriptionFilename, transcriptPath, transcriptionCaption); err != nil {
		return fmt.Errorf("sending transcript document: %w", err)
	}
	return p.gateway.SendText(ctx, user.Number, fmt.Sprintf(summaryMessage, summary), newAudioKeyboard)
}

func (p *Pipeline) writeTranscript(transcript string) (string, error) {
	file, err := os.CreateTemp(p.workDir, "transcription-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating transcript file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(transcript); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("writing transcript file: %w", err)
	}
	return file.Name(), nil
}

// cancelled re-reads the persisted state. Any value other than
// awaiting-media means a cancel (or another override) happened externally.
// A read failure is treated as "keep going": the next poll will see it.
func (p *Pipeline) cancelled(log zerolog.Logger, number int64) bool {
	fresh, err := p.store.Get(number)
	if err != nil {
		log.Warn().Err(err).Msg("cancellation poll failed")
		return false
	}
	if fresh == nil {
		return false
	}
	return !fresh.AwaitingMedia()
}

func (p *Pipeline) removeFile(log zerolog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("temp file cleanup failed")
	}
}
