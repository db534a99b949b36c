package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"voicescribe/models"
)

// welcome fires for a user still in START state or for the literal start
// command. Each call sends a welcome message; a START state is cleared so the
// next event flows to the regular handlers.
func (d *Dispatcher) welcome(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	isStartCommand := msg.Kind == models.MESSAGE_KIND_TEXT && msg.Command() == CommandStart
	if user.State != models.STATE_START && !isStartCommand {
		return false, nil
	}

	if user.State == models.STATE_START {
		if _, err := d.store.Update(user.Number, map[string]interface{}{"state": ""}); err != nil {
			return true, err
		}
	}
	return true, d.gateway.SendText(ctx, user.Number, startMessage, startKeyboard)
}

func (d *Dispatcher) support(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	matches := (msg.Kind == models.MESSAGE_KIND_TEXT && msg.Command() == CommandSupport) ||
		(msg.Kind == models.MESSAGE_KIND_REPLY && msg.ButtonID == ButtonSupport)
	if !matches {
		return false, nil
	}
	return true, d.gateway.SendText(ctx, user.Number, supportMessage, nil)
}

// cancel clears the conversation state. When a job is mid-flight this is what
// its cancellation poll observes.
func (d *Dispatcher) cancel(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	if msg.Kind != models.MESSAGE_KIND_REPLY || msg.ButtonID != ButtonCancel {
		return false, nil
	}

	if _, err := d.store.Update(user.Number, map[string]interface{}{"state": ""}); err != nil {
		return true, err
	}
	return true, d.gateway.SendText(ctx, user.Number, cancelMessage, newAudioKeyboard)
}

// newAudio opens the media-submission window.
func (d *Dispatcher) newAudio(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	matches := (msg.Kind == models.MESSAGE_KIND_TEXT && msg.Command() == CommandNewAudio) ||
		(msg.Kind == models.MESSAGE_KIND_REPLY && msg.ButtonID == ButtonNewAudio)
	if !matches {
		return false, nil
	}

	if _, err := d.store.Update(user.Number, map[string]interface{}{"state": models.STATE_AWAITING_MEDIA}); err != nil {
		return true, err
	}
	return true, d.gateway.SendText(ctx, user.Number, newAudioMessage, cancelKeyboard)
}

// stats is admin-only; for everyone else the predicate simply does not match.
func (d *Dispatcher) stats(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	if !user.IsAdmin || msg.Kind != models.MESSAGE_KIND_TEXT || msg.Command() != CommandStats {
		return false, nil
	}

	stats, err := d.store.Stats()
	if err != nil {
		return true, err
	}
	text := fmt.Sprintf(statsMessage,
		stats.NewUsersToday, stats.RegisteredUsers, stats.UploadedAudios, stats.GptRequests)
	return true, d.gateway.SendText(ctx, user.Number, text, nil)
}

// admin handles "admin set|unset <number>". Malformed syntax gets the help
// message instead of silently failing.
func (d *Dispatcher) admin(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	if !user.IsAdmin || msg.Kind != models.MESSAGE_KIND_TEXT ||
		!strings.HasPrefix(msg.Command(), CommandAdmin) {
		return false, nil
	}

	parts := strings.Fields(msg.Command())
	if len(parts) != 3 || (parts[1] != "set" && parts[1] != "unset") {
		return true, d.gateway.SendText(ctx, user.Number, adminCommandHelpMessage, nil)
	}
	target, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return true, d.gateway.SendText(ctx, user.Number, adminCommandHelpMessage, nil)
	}

	targetUser, err := d.store.Get(target)
	if err != nil {
		return true, err
	}
	if targetUser == nil {
		return true, d.gateway.SendText(ctx, user.Number, fmt.Sprintf(userNotFoundMessage, target), nil)
	}

	// The configured root admin cannot be demoted.
	if targetUser.Number == d.adminNumber {
		return true, d.gateway.SendText(ctx, user.Number, fmt.Sprintf(notChangeAdminMessage, target), nil)
	}

	setAdmin := parts[1] == "set"
	if _, err := d.store.Update(target, map[string]interface{}{"is_admin": setAdmin}); err != nil {
		return true, err
	}

	confirmation := unsetAdminMessage
	if setAdmin {
		confirmation = setAdminMessage
	}
	d.log.Info().Int64("target", target).Bool("admin", setAdmin).Msg("admin flag changed")
	return true, d.gateway.SendText(ctx, user.Number, fmt.Sprintf(confirmation, target), nil)
}

// question is the catch-all for remaining text events. It requires a stored
// transcription as context; otherwise the user gets guidance instead of a
// model call.
func (d *Dispatcher) question(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	if msg.Kind != models.MESSAGE_KIND_TEXT {
		return false, nil
	}

	if strings.TrimSpace(user.LastTranscriptionText) == "" {
		return true, d.gateway.SendText(ctx, user.Number, withoutTranscriptionMessage, newAudioKeyboard)
	}

	if err := d.gateway.SendText(ctx, user.Number, responseGenerationMessage, nil); err != nil {
		return true, err
	}

	answer, err := d.ai.Answer(ctx, user.LastTranscriptionText, msg.Text)
	if err != nil {
		d.log.Error().Err(err).Int64("user", user.Number).Msg("answer generation failed")
		answer = errorResponseGenerationMessage
	} else {
		if _, err := d.store.Update(user.Number, map[string]interface{}{"gpt_requests": user.GptRequests + 1}); err != nil {
			d.log.Error().Err(err).Int64("user", user.Number).Msg("counting gpt request failed")
		}
	}

	return true, d.gateway.SendText(ctx, user.Number, answer, newAudioKeyboard)
}
