package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Karthik-Ragunath/screencap/config"
	"github.com/Karthik-Ragunath/screencap/internal/accumulate"
	"github.com/Karthik-Ragunath/screencap/internal/audioproc"
	"github.com/Karthik-Ragunath/screencap/internal/capture"
	"github.com/Karthik-Ragunath/screencap/internal/output"
	"github.com/Karthik-Ragunath/screencap/internal/session"
	"github.com/Karthik-Ragunath/screencap/internal/transcribe"
	"github.com/Karthik-Ragunath/screencap/internal/upload"
)

// App holds the wired pipeline. Queue is nil when no remote storage is
// configured; the rest of the pipeline runs local-only in that case.
type App struct {
	Controller *session.Controller
	Queue      *upload.Queue
	Log        *output.Logger
}

func New(cfg *config.Config) (*App, error) {
	log := output.NewLogger(os.Stderr, "screencap")

	var queue *upload.Queue
	if cfg.UploadConfigured() {
		storage, err := upload.NewS3Storage(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.AWSProfile)
		if err != nil {
			return nil, fmt.Errorf("configuring remote storage: %w", err)
		}
		queue = upload.NewQueue(storage, cfg.S3Prefix, log.WithTag("upload"))
	}

	var backend transcribe.Backend
	if cfg.TranscriptionConfigured() {
		backend = transcribe.NewGeminiBackend(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	processor := audioproc.NewProcessor(backend, log.WithTag("audio"))

	deps := session.Deps{
		NewDriver: func(sc session.Config) (session.SegmentCapturer, error) {
			if err := capture.CheckEncoder(); err != nil {
				return nil, err
			}
			builder, err := capture.NewCommandBuilder()
			if err != nil {
				return nil, err
			}
			params := capture.Params{
				Duration:  time.Duration(sc.SegmentSeconds) * time.Second,
				FrameRate: sc.FrameRate,
				Quality:   sc.Quality,
				Inputs: capture.Inputs{
					ScreenIndex: sc.ScreenIndex,
					AudioDevice: sc.AudioDevice,
				},
			}
			return capture.NewDriver(builder, params, log.WithTag("capture")), nil
		},
		NewEngine: func(outputDir, sessionID string) session.Accumulator {
			return accumulate.NewEngine(outputDir, sessionID, log.WithTag("accumulate"))
		},
		Processor: processor,
		Log:       log.WithTag("session"),
	}
	if queue != nil {
		deps.Uploader = queue
	}

	return &App{
		Controller: session.NewController(deps),
		Queue:      queue,
		Log:        log,
	}, nil
}
