package routes

import (
	"context"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/config"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/handlers"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/metrics"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/middleware"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
	chatws "github.com/KhoaNguyenNe/QuanLySucKhoe/internal/websocket"
)

// Dependencies are the optional collaborators built by the server binary.
type Dependencies struct {
	Metrics     *metrics.Manager
	RateLimiter middleware.RequestRateLimiter
}

// RegisterRoutes mounts the API under /api. The chat hub runs until ctx is
// cancelled.
func RegisterRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *pgxpool.Pool, deps Dependencies) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := services.NewClock(loc)

	var storageService services.StorageService
	if cfg.StorageEnabled() {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	} else {
		log.Warnln("image storage is not configured, uploads will be rejected")
	}

	var mailer services.Mailer = services.LogMailer{}
	if cfg.SMTPEnabled() {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Warnln("SMTP is not configured, OTP codes will be written to the log")
	}

	var generator services.TextGenerator
	if cfg.TextGenURL != "" {
		generator = services.NewChatCompletionClient(cfg.TextGenURL, cfg.TextGenAPIKey, cfg.TextGenModel, cfg.TextGenTimeout)
	}

	authService := services.NewAuthService(
		repository.NewUserRepository(db),
		services.NewIDTokenVerifier(cfg.GoogleClientID),
		services.TokenSettings{
			Secret:     cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
	)
	otpService := services.NewOTPService(db, mailer, deps.Metrics, cfg.OTPInvalidatePrevious)
	chatService := services.NewChatService(db)

	authHandler := handlers.NewAuthHandler(authService, otpService)
	userHandler := handlers.NewUserHandler(services.NewUserService(db, clock))
	exerciseHandler := handlers.NewExerciseHandler(services.NewExerciseService(db, storageService))
	trainingHandler := handlers.NewTrainingHandler(services.NewTrainingService(db, storageService))
	workoutHandler := handlers.NewWorkoutHandler(services.NewWorkoutService(db, deps.Metrics, clock))
	healthHandler := handlers.NewHealthHandler(services.NewHealthService(db, clock))
	reminderHandler := handlers.NewReminderHandler(services.NewReminderService(db))
	statisticsHandler := handlers.NewStatisticsHandler(services.NewStatisticsService(db, clock, cfg.WeekStartsOnSunday()))
	dietHandler := handlers.NewDietHandler(services.NewDietService(db, generator, deps.Metrics))
	journalHandler := handlers.NewJournalHandler(services.NewJournalService(db, clock))

	chatHub := chatws.NewHub()
	go chatHub.Run(ctx)
	chatHandler := handlers.NewChatHandler(ctx, chatService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	api.Post("/register", authHandler.Register)
	api.Post("/auth/jwt/token", authHandler.Token)
	api.Post("/auth/jwt/token/refresh", authHandler.Refresh)
	api.Post("/auth/jwt/token/verify", authHandler.Verify)
	api.Post("/auth/google-login", authHandler.GoogleLogin)
	api.Post("/auth/password/send-otp",
		middleware.RateLimit(deps.RateLimiter, "send-otp", cfg.OTPSendPerMinute),
		authHandler.SendOTP,
	)
	api.Post("/auth/password/confirm-otp", authHandler.ConfirmOTP)

	// The websocket authenticates with ?token= before the upgrade.
	api.Use("/ws", chatHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(chatHandler.HandleWebSocket))

	protected := api.Group("", middleware.AuthRequired(cfg.JWTSecret))

	protected.Get("/auth/profile", userHandler.GetProfile)
	protected.Put("/auth/profile", userHandler.UpdateProfile)

	users := protected.Group("/users")
	users.Get("", userHandler.ListUsers)
	users.Get("/experts", userHandler.ListExperts)
	users.Post("/link-expert", middleware.RequireRole(access.RoleUser), userHandler.LinkExpert)
	users.Post("/unlink-expert", middleware.RequireRole(access.RoleUser), userHandler.UnlinkExpert)
	users.Get("/my-clients", middleware.RequireRole(access.RoleExpert), userHandler.ListClients)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Patch("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)
	users.Get("/:id/statistics", statisticsHandler.UserStatistics)
	users.Get("/:id/meal-plans", dietHandler.ListUserPlans)
	users.Get("/:id/nutrition-suggestion", dietHandler.NutritionSuggestion)
	users.Get("/:id/journals", journalHandler.ListForUser)

	exercises := protected.Group("/exercises")
	exercises.Get("", exerciseHandler.List)
	exercises.Post("", exerciseHandler.Create)
	exercises.Get("/:id", exerciseHandler.Get)
	exercises.Put("/:id", exerciseHandler.Update)
	exercises.Patch("/:id", exerciseHandler.Update)
	exercises.Delete("/:id", exerciseHandler.Delete)

	schedules := protected.Group("/training-schedules")
	schedules.Get("", trainingHandler.ListSchedules)
	schedules.Post("", trainingHandler.CreateSchedule)
	schedules.Get("/:id", trainingHandler.GetSchedule)
	schedules.Put("/:id", trainingHandler.UpdateSchedule)
	schedules.Patch("/:id", trainingHandler.UpdateSchedule)
	schedules.Delete("/:id", trainingHandler.DeleteSchedule)

	sessions := protected.Group("/training-sessions")
	sessions.Get("", trainingHandler.ListSessions)
	sessions.Post("", trainingHandler.CreateSession)
	sessions.Get("/:id", trainingHandler.GetSession)
	sessions.Put("/:id", trainingHandler.UpdateSession)
	sessions.Patch("/:id", trainingHandler.UpdateSession)
	sessions.Delete("/:id", trainingHandler.DeleteSession)
	sessions.Post("/:id/add_feedback", trainingHandler.AddFeedback)

	workouts := protected.Group("/workout-sessions")
	workouts.Get("", workoutHandler.List)
	workouts.Post("", workoutHandler.Start)
	workouts.Get("/:id", workoutHandler.Get)
	workouts.Delete("/:id", workoutHandler.Delete)
	workouts.Post("/:id/complete_exercise", workoutHandler.CompleteExercise)
	workouts.Post("/:id/complete_workout", workoutHandler.CompleteWorkout)
	protected.Get("/training-history", workoutHandler.History)

	healthMetrics := protected.Group("/health-metrics")
	healthMetrics.Get("/get", healthHandler.Today)
	healthMetrics.Post("/water", healthHandler.AddWater)
	healthMetrics.Post("/steps", healthHandler.SetSteps)
	healthMetrics.Post("/heart-rate", healthHandler.SetHeartRate)
	healthMetrics.Post("/bmi", healthHandler.UpdateBMI)
	healthMetrics.Get("/history", healthHandler.History)

	water := protected.Group("/water-sessions")
	water.Get("", healthHandler.ListWater)
	water.Post("", healthHandler.CreateWater)

	reminders := protected.Group("/reminders")
	reminders.Get("", reminderHandler.List)
	reminders.Post("", reminderHandler.Create)
	reminders.Post("/flexible", reminderHandler.CreateFlexible)
	reminders.Get("/:id", reminderHandler.Get)
	reminders.Put("/:id", reminderHandler.Update)
	reminders.Patch("/:id", reminderHandler.Update)
	reminders.Delete("/:id", reminderHandler.Delete)

	protected.Get("/training-statistics", statisticsHandler.TrainingStatistics)

	goals := protected.Group("/diet-goals")
	goals.Get("", dietHandler.ListGoals)
	goals.Post("", dietHandler.CreateGoal)
	goals.Get("/:id", dietHandler.GetGoal)
	goals.Delete("/:id", dietHandler.DeleteGoal)

	plans := protected.Group("/meal-plans")
	plans.Get("", dietHandler.ListPlans)
	plans.Post("/generate", dietHandler.GeneratePlan)
	plans.Get("/:id", dietHandler.GetPlan)
	plans.Delete("/:id", dietHandler.DeletePlan)

	journals := protected.Group("/journals")
	journals.Get("", journalHandler.List)
	journals.Post("", journalHandler.Create)
	journals.Get("/:id", journalHandler.Get)
	journals.Put("/:id", journalHandler.Update)
	journals.Patch("/:id", journalHandler.Update)
	journals.Delete("/:id", journalHandler.Delete)

	protected.Get("/chat-history/:user_id/:expert_id", chatHandler.History)
	protected.Get("/chat-messages", chatHandler.ListConversations)
	protected.Post("/chat-messages", chatHandler.Send)

	return nil
}
