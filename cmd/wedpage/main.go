package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/robfig/cron/v3"

	"wedpage/internal/audio"
	"wedpage/internal/config"
	"wedpage/internal/ics"
	"wedpage/internal/model"
	"wedpage/internal/page"
	"wedpage/internal/shell"

	appLog "wedpage/internal/log"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	once       bool
	plain      bool
	rows       int
}

func main() {
	appLog.Info("wedpage starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"title", conf.Event.Title,
		"programme_sources", len(conf.Programme),
		"audio_source", conf.Audio.Source,
		"refresh", conf.Refresh,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to resolve timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	occurrences := loadProgramme(ctx, conf, loc)

	deadline, ok, err := conf.Deadline()
	if err != nil {
		appLog.Error("failed to parse event date", err, "date", conf.Event.Date)
		os.Exit(1)
	}
	if !ok {
		// No explicit date configured; the earliest programme entry is
		// the wedding moment.
		deadline, ok = ics.EarliestStart(occurrences)
	}
	if !ok {
		appLog.Error("no wedding date available",
			errors.New("event.date unset and programme empty"))
		os.Exit(1)
	}
	appLog.Info("wedding deadline resolved", "deadline", deadline.In(loc).Format(time.RFC3339))

	styled := !flags.plain && isatty.IsTerminal(os.Stdout.Fd())

	playerFactory := audio.NewSilentFactory()
	if conf.Audio.Source != "" {
		playerFactory = audio.NewExecFactory(conf.Audio.Player)
	}

	sh := shell.New(shell.Options{
		Title:         conf.Event.Title,
		Venue:         conf.Event.Venue,
		DeadlineLabel: deadline.In(loc).Format("Monday, January 2 2006 15:04"),
		Occurrences:   occurrences,
		Out:           os.Stdout,
		Styled:        styled,
		ViewportRows:  flags.rows,
		ScrollRows:    conf.ScrollRows,
	})

	ctrl := page.New(page.Options{
		Deadline:       deadline,
		PlayerFactory:  playerFactory,
		AudioSource:    conf.Audio.Source,
		AudioVolume:    conf.Audio.Volume,
		WatcherFactory: sh.Viewport().NewWatcher,
	})

	sh.Mount(ctx, ctrl)
	defer sh.Unmount()

	if flags.once {
		// Single frame for piping into files or previews.
		sh.Render()
		appLog.Info("wedpage exiting", "reason", "once")
		return
	}

	// The refresh schedule drives the unattended auto-scroll cycle.
	sched := cron.New()
	if _, err := sched.AddFunc(conf.Refresh, sh.AutoScroll); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.Refresh)
		os.Exit(1)
	}
	sched.Start()

	<-ctx.Done()

	schedCtx := sched.Stop()
	<-schedCtx.Done()
	appLog.Info("wedpage exiting")
}

// loadProgramme fetches, parses, and expands every configured ICS source.
// Failures are logged per source; the page still mounts with whatever
// programme survived.
func loadProgramme(ctx context.Context, conf *config.Config, loc *time.Location) []model.Occurrence {
	if len(conf.Programme) == 0 {
		return nil
	}

	sources := make([]ics.Source, 0, len(conf.Programme))
	for _, p := range conf.Programme {
		sources = append(sources, ics.Source{ID: p.ID, Name: p.Name, Location: p.Location})
	}

	fetcher := ics.NewFetcher(conf.CacheDir)
	results, errs := fetcher.FetchAll(ctx, sources)
	for _, err := range errs {
		appLog.Warn("programme source unavailable", "error", err.Error())
	}

	var parsed []ics.ParsedEvent
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Warn("programme source unparseable", "source", res.Source.ID, "error", err.Error())
			continue
		}
		parsed = append(parsed, events...)
	}

	now := time.Now().In(loc)
	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      now.AddDate(0, 0, -1),
		RangeEnd:        now.AddDate(1, 0, 0),
	})
	if err != nil {
		appLog.Warn("programme expansion failed", "error", err.Error())
		return nil
	}
	for _, uid := range expanded.TruncatedEvents {
		appLog.Warn("programme event truncated", "uid", uid)
	}

	appLog.Info("programme loaded",
		"sources", len(results),
		"events", len(parsed),
		"occurrences", len(expanded.Occurrences),
	)
	return expanded.Occurrences
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Render a single frame and exit")
	flag.BoolVar(&cfg.plain, "plain", false, "Disable ANSI styling even on a terminal")
	flag.IntVar(&cfg.rows, "rows", 0, "Viewport height in rows (0 = default)")

	flag.Parse()

	return cfg
}
