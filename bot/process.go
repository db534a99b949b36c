package bot

import (
	"context"

	"voicescribe/models"
)

// process is the media-admission handler. The predicate requires a supported
// MIME type and a fresh awaiting-media state; the state is re-read from the
// store right before admission so a concurrent cancel is not acted over.
func (d *Dispatcher) process(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	if msg.Kind != models.MESSAGE_KIND_MEDIA || !supportedMimeTypes[msg.MimeType] {
		return false, nil
	}

	fresh, err := d.store.Get(user.Number)
	if err != nil {
		return true, err
	}
	if fresh == nil || !fresh.AwaitingMedia() {
		return false, nil
	}

	if !d.guard.TryAdmit(user.Number) {
		return true, d.gateway.SendText(ctx, user.Number, alreadyInProcessMessage, nil)
	}

	if err := d.gateway.SendText(ctx, user.Number, inProcessMessage, nil); err != nil {
		d.log.Error().Err(err).Int64("user", user.Number).Msg("in-process notice failed")
	}

	// Fire and forget: the job owns its failure handling and cleanup, and the
	// guard slot is released inside Run on every exit path.
	go d.pipeline.Run(fresh, msg)

	return true, nil
}
