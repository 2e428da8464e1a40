package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	api "github.com/steventyyeh/kailendar-v2/cmd/api"
	authdomain "github.com/steventyyeh/kailendar-v2/internal/auth/domain"
	authRepo "github.com/steventyyeh/kailendar-v2/internal/auth/repository"
	authUsecase "github.com/steventyyeh/kailendar-v2/internal/auth/usecase"
	caldomain "github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	calendarRepo "github.com/steventyyeh/kailendar-v2/internal/calendar/repository"
	calendarUsecase "github.com/steventyyeh/kailendar-v2/internal/calendar/usecase"
	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	goalRepo "github.com/steventyyeh/kailendar-v2/internal/goal/repository"
	goalUsecase "github.com/steventyyeh/kailendar-v2/internal/goal/usecase"
	"github.com/steventyyeh/kailendar-v2/internal/goal/worker"
	"github.com/steventyyeh/kailendar-v2/internal/notification"
	"github.com/steventyyeh/kailendar-v2/internal/plan"
	taskdomain "github.com/steventyyeh/kailendar-v2/internal/task/domain"
	taskRepo "github.com/steventyyeh/kailendar-v2/internal/task/repository"
	"github.com/steventyyeh/kailendar-v2/internal/task/scheduler"
	taskUsecase "github.com/steventyyeh/kailendar-v2/internal/task/usecase"
	"github.com/steventyyeh/kailendar-v2/pkg/config"
	"github.com/steventyyeh/kailendar-v2/pkg/database"
	"github.com/steventyyeh/kailendar-v2/pkg/fcm"
	"github.com/steventyyeh/kailendar-v2/pkg/gcal"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.FCMToken{}, &goaldomain.Goal{}, &goaldomain.GenerationJob{}, &taskdomain.Task{}, &caldomain.CalendarConnection{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	goalRepository := goalRepo.NewGormGoalRepository(db)
	jobRepository := goalRepo.NewGormJobRepository(db)
	taskRepository := taskRepo.NewGormTaskRepository(db)
	connectionRepository := calendarRepo.NewGormConnectionRepository(db)

	// Calendar provider; without OAuth credentials every calendar call reports not configured
	var provider caldomain.Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		provider = gcal.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	} else {
		log.Printf("[WARN] Google OAuth client not configured, calendar sync disabled")
		provider = calendarUsecase.NewNopProvider()
	}
	connectionUc := calendarUsecase.NewConnectionUsecase(connectionRepository, provider, cfg.JWTSecret)
	synchronizer := calendarUsecase.NewSynchronizer(connectionUc, cfg.DefaultTaskHour, cfg.CalendarSyncConcurrency)

	// Generative provider chain; Ollama follows the runtime settings API
	settings := api.NewRuntimeSettings(cfg)
	llm := api.NewPlanTextGenerator(cfg, settings)
	if llm == nil {
		log.Printf("[WARN] No generative provider configured, goals get the template plan")
	} else {
		log.Printf("Generative provider chain initialized (preference: %s)", cfg.AIProvider)
	}

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepo, fcmTokenRepo, cfg)
	taskUc := taskUsecase.NewTaskUsecase(taskRepository, goalRepository, synchronizer, cfg.DefaultTaskHour)
	goalUc := goalUsecase.NewGoalUsecase(goalRepository, jobRepository, taskRepository, userRepo, plan.NewGenerator(llm), synchronizer, taskUc, cfg)

	// Notifications: FCM push and Pub/Sub lifecycle events, each optional
	var push notification.PushSender
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			push = fcmClient
		}
	}
	var publisher *notification.PubSubPublisher
	if cfg.GoogleProjectID != "" {
		// Accept either a short topic name or a full resource name
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		publisher, err = notification.NewPubSubPublisher(context.Background(), cfg.GoogleProjectID, topicName, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Pub/Sub publisher (lifecycle events disabled): %v", err)
			publisher = nil
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, lifecycle events disabled")
	}
	if push != nil || publisher != nil {
		var pub notification.Publisher
		if publisher != nil {
			pub = publisher
		}
		goalUc.SetNotifier(notification.NewService(fcmTokenRepo, push, pub, cfg.FrontendURL))
	}

	// Background work: durable generation jobs and calendar reconciliation
	generationWorker := worker.NewGenerationWorker(jobRepository, goalUc, cfg.GenerationWorkers, cfg.GenerationPollInterval, cfg.GenerationMaxAttempts)
	goalUc.SetJobQueue(generationWorker)
	generationWorker.Start()

	reconcileScheduler := scheduler.NewCalendarReconcileScheduler(taskRepository, taskUc, cfg.CalendarReconcileInterval)
	reconcileScheduler.Start()

	// Initialize HTTP handler
	handler := api.NewHandler(authUc, goalUc, taskUc, connectionUc, settings, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	go func() {
		if err := handler.Start(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := handler.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	reconcileScheduler.Stop()
	generationWorker.Stop()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("Pub/Sub close error: %v", err)
		}
	}
	log.Println("Server stopped")
}
