package app

import (
	"fmt"
	"log"

	"scene-service/internal/audit"
	"scene-service/internal/auth"
	"scene-service/internal/config"
	httpserver "scene-service/internal/http"
	"scene-service/internal/processing"
	"scene-service/internal/repository/postgres"
	"scene-service/internal/storage/local"
	"scene-service/internal/storage/s3"
)

// InitializeService wires up all dependencies and returns a configured Service
func InitializeService() (*Service, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize database connection pool
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sceneRepo := postgres.NewSceneRepository(db)
	userRepo := postgres.NewUserRepository(db)
	auditLogger := audit.NewLogger(db.Pool)

	// Initialize upload store
	store, err := local.NewStore(cfg.Upload.Dir, cfg.Upload.PublicBaseURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize upload store: %w", err)
	}

	// Initialize processing pipeline. The archive mirror is optional and
	// only enabled when a bucket is configured.
	runner := processing.NewExecRunner(cfg.Processing.NiimathPath, cfg.Processing.Timeout)

	var archiver processing.Archiver
	if cfg.Archive.Bucket != "" {
		s3Client, err := s3.NewClient(&cfg.Archive)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create archive client: %w", err)
		}
		archiver = s3Client
		log.Printf("archive mirror enabled: bucket %s", cfg.Archive.Bucket)
	}

	processor := processing.NewProcessor(sceneRepo, store, runner, archiver)

	// Initialize hub-delegated auth
	hubClient := auth.NewHubClient(&cfg.Hub)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryDuration)
	authMiddleware := auth.NewMiddleware(jwtService, hubClient, userRepo)

	server := httpserver.NewServer(&httpserver.ServerDependencies{
		Config:         cfg,
		SceneRepo:      sceneRepo,
		UserRepo:       userRepo,
		Processor:      processor,
		UploadStore:    store,
		HubClient:      hubClient,
		JWTService:     jwtService,
		AuthMiddleware: authMiddleware,
		AuditLogger:    auditLogger,
	})

	return &Service{
		config: cfg,
		db:     db,
		store:  store,
		server: server,
	}, nil
}
