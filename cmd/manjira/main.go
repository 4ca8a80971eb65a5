package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/chzyer/readline"
	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/audio"
	"github.com/satindergrewal/nadabramha/internal/config"
	"github.com/satindergrewal/nadabramha/internal/console"
	"github.com/satindergrewal/nadabramha/internal/device"
	"github.com/satindergrewal/nadabramha/internal/manjira"
)

func main() {
	cfg := config.Load()
	autostart := flag.Bool("start", cfg.Autostart, "start playing immediately")
	gain := flag.Float64("gain", cfg.MasterGain, "master gain")
	flag.Parse()

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	speaker := device.NewSpeaker(audio.NewEngine(*gain))
	defer speaker.Close()

	seed := uint64(time.Now().UnixNano())
	sched := manjira.NewScheduler(speaker, cfg.Scheduler(),
		rand.New(rand.NewPCG(seed, seed>>1)), manjira.WallTimer{})
	defer sched.Stop()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "manjira> ",
		AutoComplete:    console.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()
	log.SetOutput(rl.Stderr())

	con := console.New(sched, rl.Stdout())
	if *autostart {
		con.Exec("start")
	}
	fmt.Fprintln(rl.Stdout(), "toggle, start, stop, status, quit")
	if err := con.Run(rl); err != nil {
		log.Error(err)
	}
}
