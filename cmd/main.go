package main

import (
	"fmt"

	"project_canvass/internal/config"
	"project_canvass/internal/infrastructure"
	"project_canvass/internal/interfaces/http"
	"project_canvass/internal/repository"
	"project_canvass/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file (optional outside local dev)
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: no .env file loaded:", err)
	}

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Connect to PostgreSQL
	pgClient, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pgClient.Close()

	// Initialize Repositories
	userRepo := repository.NewUserRepository(pgClient.Pool)
	sessionRepo := repository.NewSessionRepository(pgClient.Pool)
	voterRepo := repository.NewVoterRepository(pgClient.Pool)
	surveyRepo := repository.NewSurveyRepository(pgClient.Pool)

	// Initialize Usecases
	codec := usecases.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	authUsecase := usecases.NewAuthUsecase(userRepo, sessionRepo, codec, cfg.SessionWindow, cfg.InactivityTimeout, logger)
	voterUsecase := usecases.NewVoterUsecase(voterRepo, logger)
	surveyUsecase := usecases.NewSurveyUsecase(voterRepo, surveyRepo, logger)
	adminUsecase := usecases.NewAdminUsecase(userRepo, logger)

	// Background reclaim of stale sessions, disabled when interval is zero
	if cfg.SweepInterval > 0 {
		sweeper := infrastructure.NewSessionSweeper(sessionRepo, cfg.SweepInterval, cfg.InactivityTimeout, logger)
		sweeper.Start()
		defer sweeper.Stop()
	}

	loginLimiter := infrastructure.NewLoginRateLimiter(float64(cfg.LoginRatePerMin)/60.0, cfg.LoginRatePerMin)
	middleware := http.NewMiddleware(authUsecase, cfg.CORSOrigins)

	r := gin.Default()
	http.SetupRoutes(r, authUsecase, voterUsecase, surveyUsecase, adminUsecase, pgClient, loginLimiter, middleware, cfg.InactivityMinutes())

	logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
