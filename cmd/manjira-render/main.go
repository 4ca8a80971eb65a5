package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/config"
	"github.com/satindergrewal/nadabramha/internal/render"
)

func main() {
	cfg := config.Load()
	out := flag.String("out", "manjira.wav", "WAV output path")
	midiOut := flag.String("midi", "", "optional MIDI strike log path")
	duration := flag.Float64("duration", 60, "seconds of audio to render")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	gain := flag.Float64("gain", cfg.MasterGain, "master gain")
	flag.Parse()

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *out, *midiOut, render.Options{
		Duration:   *duration,
		Seed:       *seed,
		MasterGain: *gain,
		Scheduler:  cfg.Scheduler(),
	}); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, out, midiOut string, opts render.Options) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	log.WithField("seed", opts.Seed).Infof("Rendering %.1fs to %s", opts.Duration, out)
	res, err := render.WAV(ctx, f, opts)
	if err != nil {
		return err
	}

	if midiOut == "" {
		return nil
	}
	m, err := os.Create(midiOut)
	if err != nil {
		return fmt.Errorf("create midi: %w", err)
	}
	defer m.Close()
	if err := render.MIDI(m, res.Strikes); err != nil {
		return err
	}
	log.Infof("Wrote %d strikes to %s", len(res.Strikes), midiOut)
	return nil
}
