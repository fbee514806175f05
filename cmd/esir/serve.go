package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/esir-council/esir/src/api/webserver"
	"github.com/esir-council/esir/src/config"
	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/data"
	"github.com/esir-council/esir/src/discord"
	"github.com/esir-council/esir/src/reports"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, args []string) error {
	cfg, db, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	councilCfg := config.LoadCouncil(db)

	var opts []council.Option
	var events webserver.EventReader
	rdb, err := data.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: event stream disabled: %v", err)
	} else {
		stream := data.NewEventStream(rdb)
		opts = append(opts, council.WithPublisher(stream))
		events = stream
		defer rdb.Close()
	}

	if councilCfg.DiscordToken != "" && councilCfg.DiscordChannelID != "" {
		ann, err := discord.NewAnnouncer(councilCfg.DiscordToken, councilCfg.DiscordChannelID)
		if err != nil {
			log.Printf("Warning: Discord announcer disabled: %v", err)
		} else {
			opts = append(opts, council.WithAnnouncer(ann))
		}
	}

	font, err := reports.LoadFont(cfg.ProtocolFont, cfg.ProtocolFontBold)
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	svc := council.New(db, opts...)
	router := webserver.New(webserver.Options{
		Config:       cfg,
		Council:      svc,
		DB:           db,
		Events:       events,
		Context:      ctx,
		ProtocolFont: font,
	})

	httpSrv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("%s API listening on %s", councilCfg.Name, cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	return httpSrv.Shutdown(shutCtx)
}
