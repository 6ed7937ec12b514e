package main

import (
	"context"
	"errors"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/analyzer"
	"github.com/iburimskiy/audio-reactive/internal/audio"
	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/game"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/logging"
	"github.com/iburimskiy/audio-reactive/internal/media"
	"github.com/iburimskiy/audio-reactive/internal/metrics"
	"github.com/iburimskiy/audio-reactive/internal/params"
	"github.com/iburimskiy/audio-reactive/internal/scene"
	"github.com/iburimskiy/audio-reactive/internal/server"
	"github.com/iburimskiy/audio-reactive/internal/video"
)

func main() {
	cfg := config.Default()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address for the control, levels and image endpoints")
	flag.StringVar(&cfg.AudioMode, "audio", cfg.AudioMode, "local audio input: mic, file or none")
	flag.StringVar(&cfg.AudioFile, "audio-file", cfg.AudioFile, "audio file to play when -audio=file")
	flag.StringVar(&cfg.RemoteLevels, "remote-levels", cfg.RemoteLevels, "websocket pushing {low,mid,high} used when local audio is unavailable")
	flag.StringVar(&cfg.ImageDir, "images", cfg.ImageDir, "image folder to use as background at startup")
	flag.StringVar(&cfg.LogoPath, "logo", cfg.LogoPath, "logo image shown at startup")
	flag.StringVar(&cfg.VideoURL, "video", cfg.VideoURL, "YouTube URL to use as background at startup")
	flag.StringVar(&cfg.VideoFile, "video-file", cfg.VideoFile, "local video file to use as background at startup, instead of -video")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "window width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "window height")
	flag.BoolVar(&cfg.Fullscreen, "fullscreen", cfg.Fullscreen, "start fullscreen")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flag.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "human readable logs")
	flag.Parse()

	log := logging.Setup(cfg.LogLevel, cfg.Pretty)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("visualizer stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := &levels.Store{}
	selector := levels.NewSelector(func(k levels.Kind) {
		metrics.SetRemoteSource(k == levels.Remote)
		log.Info().Stringer("source", k).Msg("level source switched")
	})

	ring := audio.NewRing(config.VisualRingSize)
	capture := audio.NewCapture(ring, config.SampleRate)
	var (
		local  analyzer.Source
		player *audio.FilePlayer
	)
	input, err := audio.Open(cfg, ring, logging.Component("audio"))
	if err != nil {
		log.Warn().Err(err).Msg("falling back to remote levels")
		selector.Fallback()
	} else {
		defer input.Close()
		local = capture
		capture.SetSampleRate(input.SampleRate())
		if fp, ok := input.(*audio.FilePlayer); ok {
			player = fp
			fp.OnRate = capture.SetSampleRate
		}
	}

	if cfg.RemoteLevels != "" {
		feed := &levels.RemoteFeed{
			URL:    cfg.RemoteLevels,
			Store:  store,
			Logger: logging.Component("remote-levels"),
			Active: func() bool { return selector.Active() == levels.Remote },
		}
		go func() {
			if err := feed.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("remote level feed ended")
			}
		}()
	} else if local == nil {
		log.Warn().Msg("no remote level source configured, levels stay silent")
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	videoLayer := video.NewLayer(nil, cfg.Width, cfg.Height, logging.Component("video"))
	defer videoLayer.Close()

	engine := scene.New(scene.Options{
		Params:   params.Defaults(),
		Local:    local,
		Store:    store,
		Selector: selector,
		Folder:   media.NewFolder(rng),
		Loader:   media.NewLoader(8),
		Logo:     &media.LogoFile{},
		Video:    videoLayer,
		Rand:     rng,
		Logger:   logging.Component("scene"),
	})
	defer engine.Close()

	hub := control.NewHub(config.ControlChannel, logging.Component("control"))
	go engine.Listen(ctx, hub)

	srv := server.New(server.Options{
		Hub:         hub,
		Store:       store,
		Folder:      engine.Folder(),
		Logo:        engine.Logo(),
		LevelsEvery: config.LevelsPushInterval,
		Logger:      logging.Component("server"),
	})
	go func() {
		if err := srv.Run(ctx, cfg.Addr); err != nil {
			log.Error().Err(err).Str("addr", cfg.Addr).Msg("http server stopped")
		}
	}()

	postStartup(ctx, engine, videoLayer, cfg, log)

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("Audio Reactive - M: spectrum, P: palette, S: space, L: logo, N: next image, O/F/G: open, Esc/Q: quit")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Fullscreen)

	g := game.New(game.Options{
		Engine: engine,
		Done:   ctx.Done(),
		Video:  videoLayer,
		Player: player,
		Width:  cfg.Width,
		Height: cfg.Height,
		Logger: logging.Component("game"),
	})
	defer g.Close()
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// postStartup queues the background and logo given on the command line.
// They take effect on the first frame like any remote message.
func postStartup(ctx context.Context, engine *scene.Engine, layer *video.Layer, cfg config.Config, log zerolog.Logger) {
	var msgs []control.Message
	if cfg.ImageDir != "" {
		msgs = append(msgs, control.Message{Type: control.SetDirPathAndUse, Path: cfg.ImageDir})
	}
	if cfg.LogoPath != "" {
		msgs = append(msgs, control.Message{Type: control.SetLogoPathAndUse, Path: cfg.LogoPath})
	}
	switch {
	case cfg.VideoFile != "":
		if _, err := layer.UseFile(ctx, cfg.VideoFile); err != nil {
			log.Warn().Err(err).Msg("startup video rejected")
			break
		}
		m, err := control.NewMessage(control.SetBgSource, "video")
		if err != nil {
			log.Warn().Err(err).Msg("startup video not queued")
			break
		}
		msgs = append(msgs, m)
	case cfg.VideoURL != "":
		msgs = append(msgs, control.Message{Type: control.UseYoutubeURL, URL: cfg.VideoURL})
	}
	for _, m := range msgs {
		err := engine.Post(m, func(a control.Ack) {
			if !a.Succeeded() {
				log.Warn().Str("ack", a.Message).Msg("startup setting rejected")
			}
		})
		if err != nil {
			log.Warn().Err(err).Str("type", m.Type).Msg("startup setting not queued")
		}
	}
}
