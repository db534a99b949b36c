package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"voicescribe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func admitForJob(t *testing.T, b *testBot, number int64) {
	t.Helper()
	require.True(t, b.guard.TryAdmit(number))
}

func TestPipelineJoinsChunksInOrder(t *testing.T) {
	b := newTestBot(t)
	b.segmenter.duration = 60 * time.Minute // 25 + 25 + 10
	b.ai.summary = "three bullet points"
	user := b.addUser(t, models.User{Number: 200, State: models.STATE_AWAITING_MEDIA, UploadedAudios: 2})
	admitForJob(t, b, 200)

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobDone, status)

	require.Len(t, b.segmenter.exports, 3)
	assert.Equal(t, 0, b.segmenter.exports[0].Index)
	assert.Equal(t, time.Duration(0), b.segmenter.exports[0].Start)
	assert.Equal(t, 25*time.Minute, b.segmenter.exports[1].Start)
	assert.Equal(t, 50*time.Minute, b.segmenter.exports[2].Start)
	assert.Equal(t, 10*time.Minute, b.segmenter.exports[2].Duration)

	fresh, _ := b.store.Get(200)
	assert.Equal(t, "part0 part1 part2", fresh.LastTranscriptionText)
	assert.Equal(t, "three bullet points", fresh.LastSummaryText)
	assert.Equal(t, 3, fresh.UploadedAudios)
	assert.Equal(t, "", fresh.State)

	docs := b.gateway.sentDocuments()
	require.Len(t, docs, 1)
	assert.Equal(t, transcriptionFilename, docs[0].Filename)
	assert.Equal(t, transcriptionCaption, docs[0].Caption)

	texts := b.gateway.sentTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, fmt.Sprintf(summaryMessage, "three bullet points"), texts[0].Text)

	assert.Equal(t, 0, b.guard.Len())
	assert.Equal(t, 0, workDirEntries(t, b.workDir), "all temp files removed")
}

func TestPipelineSingleChunkAtBound(t *testing.T) {
	b := newTestBot(t)
	b.segmenter.duration = 25 * time.Minute
	user := b.addUser(t, models.User{Number: 201, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 201)

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobDone, status)

	require.Len(t, b.segmenter.exports, 1)
	assert.Equal(t, 25*time.Minute, b.segmenter.exports[0].Duration)

	fresh, _ := b.store.Get(201)
	assert.Equal(t, "part0", fresh.LastTranscriptionText)
}

func TestPipelineCancellationBetweenChunks(t *testing.T) {
	b := newTestBot(t)
	b.segmenter.duration = 75 * time.Minute // 3 chunks
	user := b.addUser(t, models.User{Number: 202, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 202)

	// Cancel lands while the first chunk is in flight; the poll before the
	// second chunk must observe it.
	b.ai.transcribeFn = func(call int, _ string) (string, error) {
		if call == 0 {
			b.store.setState(202, "")
		}
		return fmt.Sprintf("part%d", call), nil
	}

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobCancelled, status)

	assert.Equal(t, 1, b.ai.transcribeCalls, "no chunk after the cancelled poll")
	assert.Equal(t, 0, b.ai.summarized(), "a cancelled job never summarizes")
	assert.Empty(t, b.gateway.sentDocuments())
	assert.Empty(t, b.gateway.sentTexts(), "cancellation is silent from the job side")

	assert.Equal(t, 0, b.guard.Len())
	assert.Equal(t, 0, workDirEntries(t, b.workDir))
}

func TestPipelineCancellationBeforeSummary(t *testing.T) {
	b := newTestBot(t)
	b.segmenter.duration = 10 * time.Minute
	user := b.addUser(t, models.User{Number: 203, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 203)

	b.ai.transcribeFn = func(call int, _ string) (string, error) {
		b.store.setState(203, "") // cancel during the only chunk
		return "part0", nil
	}

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobCancelled, status)
	assert.Equal(t, 0, b.ai.summarized())

	fresh, _ := b.store.Get(203)
	assert.Equal(t, "", fresh.LastTranscriptionText, "a cancelled job persists nothing")
}

func TestPipelineDownloadFailure(t *testing.T) {
	b := newTestBot(t)
	b.gateway.fetchErr = errors.New("http 502")
	user := b.addUser(t, models.User{Number: 204, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 204)

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobFailed, status)

	texts := b.gateway.sentTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, errorInProcessMessage, texts[0].Text)
	assert.Equal(t, newAudioKeyboard, texts[0].Markup)

	assert.Equal(t, 0, b.guard.Len())
	assert.Equal(t, 0, workDirEntries(t, b.workDir))
}

func TestPipelineTranscriptionFailure(t *testing.T) {
	b := newTestBot(t)
	b.segmenter.duration = 60 * time.Minute
	user := b.addUser(t, models.User{Number: 205, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 205)

	b.ai.transcribeFn = func(call int, _ string) (string, error) {
		if call == 1 {
			return "", errors.New("model unavailable")
		}
		return fmt.Sprintf("part%d", call), nil
	}

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobFailed, status)
	assert.Equal(t, 0, b.ai.summarized())

	fresh, _ := b.store.Get(205)
	assert.Equal(t, models.STATE_AWAITING_MEDIA, fresh.State,
		"failure does not clear the state, only success does")
	assert.Equal(t, 0, workDirEntries(t, b.workDir))
}

func TestPipelineSummarizeFailure(t *testing.T) {
	b := newTestBot(t)
	b.ai.summarizeErr = errors.New("rate limited")
	user := b.addUser(t, models.User{Number: 206, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 206)

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobFailed, status)
	assert.Empty(t, b.gateway.sentDocuments())
}

func TestPipelineEmptyTranscriptFails(t *testing.T) {
	b := newTestBot(t)
	b.ai.transcribeFn = func(_ int, _ string) (string, error) { return "   ", nil }
	user := b.addUser(t, models.User{Number: 207, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 207)

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobFailed, status)
	assert.Empty(t, b.gateway.sentDocuments())
}

func TestPipelineProbeFailure(t *testing.T) {
	b := newTestBot(t)
	b.segmenter.probeErr = errors.New("ffprobe: invalid data")
	user := b.addUser(t, models.User{Number: 208, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 208)

	status := b.pipeline.Run(user, mediaMessage("video/mp4"))
	assert.Equal(t, jobFailed, status)
	assert.Equal(t, 0, b.ai.transcribeCalls)
	assert.Equal(t, 0, workDirEntries(t, b.workDir))
}

func TestPipelinePollErrorKeepsGoing(t *testing.T) {
	// A transient store failure during a cancellation poll must not kill the
	// job; the next poll decides.
	b := newTestBot(t)
	b.segmenter.duration = 30 * time.Minute // 2 chunks
	user := b.addUser(t, models.User{Number: 209, State: models.STATE_AWAITING_MEDIA})
	admitForJob(t, b, 209)

	b.ai.transcribeFn = func(call int, _ string) (string, error) {
		switch call {
		case 0:
			b.store.setGetErr(errors.New("connection reset")) // fails the next poll
		case 1:
			b.store.setGetErr(nil) // store recovers
		}
		return fmt.Sprintf("part%d", call), nil
	}

	status := b.pipeline.Run(user, mediaMessage("audio/mpeg"))
	assert.Equal(t, jobDone, status)
	assert.Equal(t, 2, b.ai.transcribeCalls)
}
