package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"training-orchestrator/api/rest/routes"
	"training-orchestrator/config"
	"training-orchestrator/core/engine"
	"training-orchestrator/core/models"
	"training-orchestrator/core/monitoring"
	"training-orchestrator/core/orchestrator"
	"training-orchestrator/core/progress"
	"training-orchestrator/core/repository"
	"training-orchestrator/reporting"
	"training-orchestrator/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.New()
	var specPath string

	flag.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "number of training epochs")
	flag.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "batch size for training")
	flag.Float64Var(&cfg.LearningRate, "learning-rate", cfg.LearningRate, "initial learning rate")
	flag.StringVar(&cfg.DatasetPath, "dataset-path", "", "path to the training dataset")
	flag.StringVar(&cfg.RunName, "model-name", cfg.RunName, "run name used for saved artifacts")
	flag.IntVar(&cfg.BatchStride, "batch-stride", cfg.BatchStride, "batches between progress samples")
	flag.StringVar(&cfg.ArtifactsDir, "artifacts-dir", cfg.ArtifactsDir, "root directory for run artifacts")
	flag.StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "optional listen address for the status API")
	flag.BoolVar(&cfg.DemoMode, "demo-mode", false, "run against the simulated engine with a synthetic dataset")
	flag.StringVar(&specPath, "spec", "", "YAML run spec file (overrides flags it sets)")
	flag.Parse()

	encoder := progress.NewEncoder(os.Stdout)

	if specPath != "" {
		if err := config.LoadSpecFile(cfg, specPath); err != nil {
			return fatal(encoder, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fatal(encoder, err)
	}

	runID := uuid.New().String()

	ws, err := storage.NewWorkspace(cfg.ArtifactsDir)
	if err != nil {
		return fatal(encoder, err)
	}
	defer ws.Close()
	if err := ws.OpenRunLog(cfg.RunName); err != nil {
		log.Printf("Run log disabled: %v", err)
	}

	log.Printf("Starting run %s (%s): %d epochs, batch size %d, learning rate %g",
		runID, cfg.RunName, cfg.Epochs, cfg.BatchSize, cfg.LearningRate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Interrupt received, stopping at the next batch boundary...")
		cancel()
	}()

	tracker := monitoring.NewTracker(runID, cfg.RunName)
	emitters := progress.MultiEmitter{encoder, tracker}

	// Optional persistence of runs, events and history
	var runRepo *repository.RunRepository
	var artifactRepo *repository.ArtifactRepository
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Database unavailable, persistence disabled: %v", err)
		} else {
			defer db.Close()
			if err := db.Migrate(); err != nil {
				log.Printf("Database migration failed, persistence disabled: %v", err)
			} else {
				runRepo = repository.NewRunRepository(db)
				now := time.Now()
				run := &models.Run{
					ID:          runID,
					Name:        cfg.RunName,
					Status:      models.RunStatusRunning,
					Epochs:      cfg.Epochs,
					BatchSize:   cfg.BatchSize,
					DatasetPath: cfg.DatasetPath,
					StartedAt:   &now,
				}
				if err := runRepo.CreateRun(run); err != nil {
					log.Printf("Failed to record run, persistence disabled: %v", err)
					runRepo = nil
				} else {
					artifactRepo = repository.NewArtifactRepository(db)
					emitters = append(emitters, repository.NewEventRecorder(runID,
						repository.NewEventRepository(db),
						repository.NewMetricsRepository(db)))
				}
			}
		}
	}

	snapshots := storage.NewSnapshotManager(ws, runID, cfg.RunName)
	if artifactRepo != nil {
		snapshots.WithArtifactRepository(artifactRepo)
	}
	if storeCfg := storage.ObjectStoreConfigFromEnv(); storeCfg.Enabled() {
		uploader, err := storage.NewUploader(ctx, storeCfg)
		if err != nil {
			log.Printf("Object store unavailable, uploads disabled: %v", err)
		} else {
			snapshots.WithUploader(uploader)
		}
	}

	reporter := reporting.New(ws, cfg.RunName)
	defer reporter.Close()

	// Optional status API for supervisors that poll instead of reading stdout
	if cfg.StatusAddr != "" {
		r := mux.NewRouter()
		routes.SetupRoutes(r, tracker)
		server := &http.Server{Addr: cfg.StatusAddr, Handler: r}
		go func() {
			log.Printf("Status API listening on %s", cfg.StatusAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("Status API failed: %v", err)
			}
		}()
		defer server.Shutdown(context.Background())
	}

	eng := engine.NewSimulator(engine.SimulatorOptions{
		Demo:       cfg.DemoMode,
		BatchDelay: batchDelay(cfg.DemoMode),
	})

	orch := orchestrator.New(runID, cfg, eng, emitters, snapshots, reporter)
	result, runErr := orch.Run(ctx)

	if runRepo != nil {
		if err := runRepo.UpdateRunStatus(runID, result.Status); err != nil {
			log.Printf("Failed to update run status: %v", err)
		}
	}

	if runErr != nil {
		log.Printf("Run %s did not complete: %v", runID, runErr)
		return 1
	}

	log.Printf("Run %s finished: final accuracy %.4f, best loss %.4f, model saved to %s",
		runID, result.FinalAccuracy, result.BestLoss, result.FinalSnapshotPath)
	return 0
}

// fatal reports a pre-run failure on both channels the supervisor watches:
// the event stream and the exit status.
func fatal(encoder *progress.Encoder, err error) int {
	log.Printf("Cannot start training: %v", err)
	encoder.Emit(models.TrainingErrorEvent("Training failed: " + err.Error()))
	return 1
}

// batchDelay paces demo runs so the streamed progress is watchable
func batchDelay(demo bool) time.Duration {
	if demo {
		return 2 * time.Millisecond
	}
	return 0
}
