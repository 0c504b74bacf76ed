package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/scholaris/cbt-backend/internal/cache"
	"github.com/scholaris/cbt-backend/internal/config"
	"github.com/scholaris/cbt-backend/internal/database"
	"github.com/scholaris/cbt-backend/internal/handler"
	"github.com/scholaris/cbt-backend/internal/logger"
	"github.com/scholaris/cbt-backend/internal/repository"
	"github.com/scholaris/cbt-backend/internal/router"
	"github.com/scholaris/cbt-backend/internal/service"
	"github.com/scholaris/cbt-backend/internal/validator"
	"github.com/scholaris/cbt-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Scholaris CBT Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	store := cache.NewRedisStore(rdb)

	// Repositories
	studentRepo := repository.NewStudentRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	hallRepo := repository.NewExamHallRepository(pool)
	passcodeRepo := repository.NewPasscodeRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	// Services
	scoreQueue := worker.NewSubjectScoreQueue(rdb)
	passcodeService := service.NewPasscodeService(passcodeRepo, studentRepo, hallRepo, store,
		time.Duration(cfg.PasscodeTTLMaxHours)*time.Hour)
	sessionService := service.NewSessionService(store, cfg.SessionTTL)
	assemblyService := service.NewAssemblyService(examRepo, questionRepo, attemptRepo, studentRepo)
	gradingService := service.NewGradingService(attemptRepo, examRepo, questionRepo, subjectRepo, scoreQueue, log)
	practiceService := service.NewPracticeService(cfg.PracticeDir, log)

	// Handlers
	handlers := &router.Handlers{
		Session:  handler.NewSessionHandler(passcodeService, sessionService),
		Exam:     handler.NewExamHandler(assemblyService, gradingService),
		Passcode: handler.NewPasscodeHandler(passcodeService),
		Practice: handler.NewPracticeHandler(practiceService),
	}

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	scoreWorker := worker.NewSubjectScoreWorker(subjectRepo, rdb, log)
	go scoreWorker.Start(workerCtx)

	r := router.SetupRouter(sessionService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
