package main

import (
	"context"
	"net"
	"net/http"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	appConfig "lyricsexplorer/config"
	"lyricsexplorer/controller"
	"lyricsexplorer/database"
	"lyricsexplorer/genius"
	"lyricsexplorer/handlers"
	"lyricsexplorer/lyrics"
	"lyricsexplorer/pages"
	"lyricsexplorer/sentry"
	"lyricsexplorer/wordcloud"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	appConfig.NewConfig()

	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module", "method"},
		TimestampFormat: time.RFC3339,
	})
	log.SetLevel(appConfig.Config.Options.LogLevel)

	sentry.Init(appConfig.Config.Sentry)
	defer sentry.Flush()

	if err := run(context.Background()); err != nil {
		sentry.ReportFatal(err)
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg := appConfig.Config
	timeout := cfg.Options.HTTPTimeout

	var opts []controller.Option
	var history handlers.HistoryReader
	if cfg.History.IsEnabled() {
		db, err := database.New(cfg.History.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, controller.WithHistory(db))
		history = db
	}
	if cfg.Genius.LrclibFallback {
		opts = append(opts, controller.WithFallback(lyrics.NewLrclib("", timeout)))
	}

	ctl := controller.NewController(
		genius.New(cfg.Genius.APIURL, timeout),
		lyrics.NewExtractor(cfg.Genius.SiteURL, timeout),
		wordcloud.New(wordcloud.DefaultOptions()),
		opts...,
	)

	router := gin.Default()
	router.Use(sentry.GetSentryGin())
	router.SetHTMLTemplate(pages.Templates)
	handlers.NewManager(ctl, history, cfg).Register(router)

	server := &http.Server{
		Addr:              ":" + cfg.Options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	log.Infof("Starting server on :%s", cfg.Options.Port)
	return server.ListenAndServe()
}
