package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cespare/xxhash/v2"
	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/arcourse/internal/config"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/session"
	"github.com/zeusync/arcourse/internal/render/audio"
	"github.com/zeusync/arcourse/internal/render/terminal"
	"github.com/zeusync/arcourse/internal/replay"
	"github.com/zeusync/arcourse/sdk/go/client"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (.yaml, .yml or .toml)")
		synth      = flag.Float64("synth", 0, "Replay a synthetic standing player for this many seconds instead of trace files")
		seed       = flag.Uint64("seed", 0, "Spawner seed; 0 derives one from the trace name")
		workers    = flag.Int("workers", 4, "Traces replayed in parallel")
		realtime   = flag.Bool("realtime", false, "Pace frames by their timestamps")
		tui        = flag.Bool("tui", false, "Draw the game in the terminal (single trace, implies -realtime)")
		sound      = flag.Bool("sound", false, "Play audio cues (single trace)")
		record     = flag.String("record", "", "Write the synthetic trace to this file")
		remote     = flag.String("remote", "", "Stream the trace to a server play URL instead of replaying locally")
		token      = flag.String("token", "", "Access token for -remote")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [trace.jsonl ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	logger := log.NewWithEncoding(cfg.LogLevel(), cfg.Server.LogEncoding)
	defer func() { _ = logger.Sync() }()

	jobs, err := loadJobs(*synth, *record, flag.Args())
	if err != nil {
		logger.Error("load traces", log.Error(err))
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *remote != "" {
		if len(jobs) != 1 {
			logger.Fatal("-remote streams a single trace", log.Int("traces", len(jobs)))
		}
		sum, err := stream(ctx, *remote, *token, jobs[0], *realtime, logger)
		if err != nil {
			logger.Fatal("stream failed", log.Error(err))
		}
		printJSON(sum, logger)
		return
	}

	if *tui || *sound {
		if len(jobs) != 1 {
			logger.Fatal("-tui and -sound replay a single trace", log.Int("traces", len(jobs)))
		}
		sum, err := interactive(ctx, cfg, jobs[0], *seed, *tui, *sound, *realtime || *tui, logger)
		if err != nil {
			logger.Fatal("replay failed", log.Error(err))
		}
		logger.Info("summary",
			log.Int("frames", sum.Frames),
			log.Int("score", sum.Final.Score),
			log.Int("combo", sum.Final.Combo),
			log.Int("misses", sum.Final.Misses),
		)
		return
	}

	newSession := func(j replay.Job) *session.GameSession {
		return session.New(cfg.Session(),
			session.WithID(j.Name),
			session.WithLogger(logger),
			session.WithSeed(seedFor(*seed, j.Name)),
		)
	}
	sums, err := replay.RunAll(ctx, jobs, *workers, newSession, replay.Options{Realtime: *realtime, Logger: logger})
	if err != nil {
		logger.Fatal("replay failed", log.Error(err))
	}

	printJSON(sums, logger)
}

func printJSON(v any, logger log.Log) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Fatal("write summary", log.Error(err))
	}
}

func stream(ctx context.Context, url, token string, job replay.Job, realtime bool, logger log.Log) (replay.RemoteSummary, error) {
	cfg := client.DefaultClientConfig()
	cfg.ServerURL = url
	cfg.AccessToken = token
	c := client.NewClient(cfg, logger)
	if err := c.Connect(ctx); err != nil {
		return replay.RemoteSummary{}, err
	}
	defer func() { _ = c.Close() }()
	return replay.Stream(ctx, c, job.Messages, replay.Options{Realtime: realtime, Logger: logger})
}

func loadJobs(synth float64, record string, paths []string) ([]replay.Job, error) {
	if synth > 0 {
		sc := replay.DefaultScript()
		sc.Duration = synth
		sc.Sway = 0.15
		msgs := replay.Synthesize(sc)
		if record != "" {
			if err := replay.WriteFile(record, msgs); err != nil {
				return nil, err
			}
		}
		return []replay.Job{{Name: "synthetic", Messages: msgs}}, nil
	}
	if len(paths) == 0 {
		return nil, errors.New("no trace files given")
	}

	jobs := make([]replay.Job, 0, len(paths))
	for _, p := range paths {
		msgs, err := replay.ReadFile(p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, replay.Job{Name: filepath.Base(p), Messages: msgs})
	}
	return jobs, nil
}

func seedFor(seed uint64, name string) uint64 {
	if seed != 0 {
		return seed
	}
	return xxhash.Sum64String(name)
}

// interactive replays one trace on the terminal and speaker. Logging is
// silenced while the screen is active.
func interactive(ctx context.Context, cfg config.Config, job replay.Job, seed uint64, tui, sound, realtime bool, logger log.Log) (replay.Summary, error) {
	if tui {
		logger = log.NewNop()
	}
	opts := []session.Option{
		session.WithID(job.Name),
		session.WithLogger(logger),
		session.WithSeed(seedFor(seed, job.Name)),
	}

	if tui {
		screen, err := tcell.NewScreen()
		if err != nil {
			return replay.Summary{}, err
		}
		if err := screen.Init(); err != nil {
			return replay.Summary{}, err
		}
		defer screen.Fini()

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go pollQuit(screen, cancel)

		r := terminal.New(screen, cfg.Track)
		opts = append(opts, session.WithHUDSink(r), session.WithRenderer(r))
	}

	s := session.New(cfg.Session(), opts...)

	if sound {
		cues := audio.NewCuePlayer()
		if err := cues.Initialize(); err != nil {
			logger.Warn("audio unavailable", log.Error(err))
		} else {
			defer cues.Cleanup()
			if _, err := cues.Attach(s.Bus()); err != nil {
				return replay.Summary{}, err
			}
		}
	}

	sum, err := replay.Run(ctx, s, job.Messages, replay.Options{Realtime: realtime, Logger: logger})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return sum, err
}

// pollQuit cancels on q, Esc or Ctrl-C. It returns when the screen is finalised.
func pollQuit(screen tcell.Screen, cancel context.CancelFunc) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				cancel()
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
