package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"voicescribe/ai"
	"voicescribe/bot"
	"voicescribe/config"
	"voicescribe/controllers"
	"voicescribe/db"
	"voicescribe/logger"
	"voicescribe/media"
	"voicescribe/router"
	"voicescribe/store"
	"voicescribe/whapi"

	"github.com/gin-gonic/gin"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("loading config")
	}

	log := logger.New(logger.Options{Level: conf.LogLevel, Format: conf.LogFormat})

	if err := conf.ApplyTimezone(); err != nil {
		log.Fatal().Err(err).Msg("applying timezone")
	}

	database, err := db.Connect(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting database")
	}
	defer database.Close()

	userStore := store.NewGormUserStore(database)

	// The admission set does not survive restarts, so any awaiting-media
	// state left behind belongs to a job that no longer exists.
	if released, err := userStore.ReleaseAwaitingMedia(); err != nil {
		log.Fatal().Err(err).Msg("reconciling stuck states")
	} else if released > 0 {
		log.Info().Int("users", released).Msg("stuck awaiting-media states cleared")
	}

	gateway := whapi.NewClient(conf.WhapiToken)

	assistant, err := ai.NewClient(conf.OpenAIAPIKey, conf.Proxy)
	if err != nil {
		log.Fatal().Err(err).Msg("building openai client")
	}

	guard := bot.NewGuard()
	pipeline := bot.NewPipeline(userStore, gateway, assistant, media.NewExporter(), guard, conf.WorkDir, log)
	dispatcher := bot.NewDispatcher(userStore, gateway, assistant, guard, pipeline, conf.AdminNumber, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	webhookURL, err := whapi.ResolveWebhookURL(ctx, conf.WebhookHost, conf.ApiPort)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("resolving webhook url")
	}
	if err := gateway.RegisterWebhook(ctx, webhookURL); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("registering webhook")
	}
	cancel()
	log.Info().Str("url", webhookURL).Msg("webhook registered")

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	router.Initialize(engine, controllers.NewWebhook(dispatcher, gateway.AuthToken, log))

	srv := &http.Server{
		Addr:              ":" + conf.ApiPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("port", conf.ApiPort).Msg("voicescribe listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
