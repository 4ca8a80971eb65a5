package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/audio"
	"github.com/satindergrewal/nadabramha/internal/config"
	"github.com/satindergrewal/nadabramha/internal/manjira"
	"github.com/satindergrewal/nadabramha/internal/stream"
	"github.com/satindergrewal/nadabramha/internal/web"
)

func main() {
	cfg := config.Load()
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("nada bramha starting up...")

	// Audio engine: its rendered frames are the audio clock
	engine := audio.NewEngine(cfg.MasterGain)
	go engine.Run(ctx)

	// Broadcaster: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, engine.Frames())

	seed := uint64(time.Now().UnixNano())
	sched := manjira.NewScheduler(engine, cfg.Scheduler(),
		rand.New(rand.NewPCG(seed, seed>>1)), manjira.WallTimer{})

	webrtcHandler := stream.NewWebRTCHandler(broadcaster, cfg.OpusBitrate)
	defer webrtcHandler.Close()

	mux := http.NewServeMux()
	api := web.NewAPI(sched)
	api.SetExtras(func() map[string]any {
		return map[string]any{
			"listeners":        broadcaster.ListenerCount() + webrtcHandler.PeerCount(),
			"http_listeners":   broadcaster.ListenerCount(),
			"webrtc_listeners": webrtcHandler.PeerCount(),
			"active_voices":    engine.ActiveVoices(),
			"config": map[string]any{
				"poll_interval_ms": sched.Config().PollInterval.Milliseconds(),
				"schedule_ahead":   sched.Config().ScheduleAhead,
				"warmup":           sched.Config().Warmup,
				"gap_min":          sched.Config().GapMin,
				"gap_max":          sched.Config().GapMax,
				"master_gain":      cfg.MasterGain,
			},
		}
	})
	api.Register(mux)

	// Audio streams
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, cfg.MP3Kbps))
	mux.Handle("/offer", webrtcHandler)

	if cfg.Autostart {
		if err := sched.Start(); err != nil {
			log.Warnf("Autostart failed: %v", err)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down...")
		sched.Stop()
		server.Close()
	}()

	log.Infof("nada bramha live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
