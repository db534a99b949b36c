package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"voicescribe/bot"
	"voicescribe/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Webhook receives gateway deliveries, checks the per-boot bearer token and
// acknowledges immediately. Processing happens in a goroutine so the gateway
// never waits on a job.
type Webhook struct {
	dispatcher *bot.Dispatcher
	authToken  string
	log        zerolog.Logger
}

func NewWebhook(dispatcher *bot.Dispatcher, authToken string, log zerolog.Logger) *Webhook {
	return &Webhook{
		dispatcher: dispatcher,
		authToken:  authToken,
		log:        log.With().Str("component", "webhook").Logger(),
	}
}

// POST /webhook
func (h *Webhook) Update(c *gin.Context) {
	if !h.authorized(c) {
		h.log.Warn().Str("ip", c.ClientIP()).Msg("unauthorized webhook call")
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	// Ack now; the dispatched unit of work owns its own failures.
	RespondSuccess(c, gin.H{"message": "ok"})

	go h.dispatcher.Handle(context.Background(), payload)
}

// GET /health
func Health(c *gin.Context) {
	RespondSuccess(c, gin.H{"status": "ok"})
}

func (h *Webhook) authorized(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) == 1
}
