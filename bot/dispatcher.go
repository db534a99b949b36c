package bot

import (
	"context"
	"strconv"
	"time"

	"voicescribe/models"
	"voicescribe/store"

	"github.com/rs/zerolog"
)

// handlerFunc is the uniform handler contract. The first handler that reports
// handled=true owns the event; the rest of the chain is skipped.
type handlerFunc func(ctx context.Context, user *models.User, msg models.Message) (bool, error)

// Dispatcher normalizes inbound webhook deliveries, resolves the sender and
// runs the fixed-priority handler chain.
type Dispatcher struct {
	store       store.UserStore
	gateway     Gateway
	ai          Assistant
	guard       *Guard
	pipeline    *Pipeline
	adminNumber int64
	log         zerolog.Logger

	routes []handlerFunc
}

func NewDispatcher(
	userStore store.UserStore,
	gateway Gateway,
	assistant Assistant,
	guard *Guard,
	pipeline *Pipeline,
	adminNumber int64,
	log zerolog.Logger,
) *Dispatcher {
	d := &Dispatcher{
		store:       userStore,
		gateway:     gateway,
		ai:          assistant,
		guard:       guard,
		pipeline:    pipeline,
		adminNumber: adminNumber,
		log:         log.With().Str("component", "dispatcher").Logger(),
	}

	// Fixed priority order. Welcome outranks everything so a fresh user is
	// always oriented first; cancel outranks media admission so a pending job
	// can always be abandoned; media admission outranks the free-text
	// catch-all so media is never misrouted.
	d.routes = []handlerFunc{
		d.welcome,
		d.support,
		d.cancel,
		d.newAudio,
		d.stats,
		d.admin,
		d.process,
		d.question,
	}
	return d
}

// Handle processes one webhook delivery. Only the first message of the
// payload is considered; self-sent messages are ignored to avoid loops.
// Failures are isolated here: nothing propagates back to the transport.
func (d *Dispatcher) Handle(ctx context.Context, payload models.WebhookPayload) {
	if len(payload.Messages) == 0 {
		d.log.Warn().Msg("webhook delivery without messages")
		return
	}

	raw := payload.Messages[0]
	if raw.FromMe {
		return
	}

	msg, ok := models.Normalize(raw)
	if !ok {
		d.log.Warn().Str("type", raw.Type).Str("message_id", raw.ID).Msg("unsupported message dropped")
		return
	}

	number, err := strconv.ParseInt(raw.From, 10, 64)
	if err != nil {
		d.log.Warn().Str("from", raw.From).Msg("sender is not a phone number, dropped")
		return
	}

	user, err := d.ensureUser(number, raw.FromName)
	if err != nil {
		d.log.Error().Err(err).Int64("user", number).Msg("resolving user failed")
		return
	}

	handled, err := d.route(ctx, user, msg)
	if err != nil {
		d.log.Error().Err(err).Int64("user", number).Str("message_id", msg.ID).Msg("handler failed")
		return
	}
	if !handled {
		d.log.Debug().Int64("user", number).Str("kind", msg.Kind).Msg("no handler matched, dropped")
	}
}

// route tries handlers in priority order with short-circuit semantics.
func (d *Dispatcher) route(ctx context.Context, user *models.User, msg models.Message) (bool, error) {
	for _, handler := range d.routes {
		handled, err := handler(ctx, user, msg)
		if err != nil {
			return true, err
		}
		if handled {
			return true, nil
		}
	}
	return false, nil
}

// ensureUser creates the record on first contact (START state, admin flag
// from config) or refreshes name and timestamp on a known user.
func (d *Dispatcher) ensureUser(number int64, name string) (*models.User, error) {
	user, err := d.store.Get(number)
	if err != nil {
		return nil, err
	}

	if user == nil {
		created, err := d.store.Create(&models.User{
			Number:             number,
			Name:               name,
			State:              models.STATE_START,
			IsAdmin:            number == d.adminNumber,
			SubscriptionStatus: models.SUBSCRIPTION_FREE,
		})
		if err != nil {
			return nil, err
		}
		d.log.Info().Int64("user", number).Msg("user registered")
		return created, nil
	}

	return d.store.Update(number, map[string]interface{}{
		"name":       name,
		"updated_at": time.Now(),
	})
}
