package http

import (
	"context"
	stdhttp "net/http"

	"scene-service/internal/auth"
	"scene-service/internal/config"
	"scene-service/internal/http/handler"
	"scene-service/internal/http/middleware"
	"scene-service/internal/repository"
	"scene-service/internal/storage/local"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const apiV1Prefix = "/api/v1"

type ServerDependencies struct {
	Config         *config.Config
	SceneRepo      repository.SceneRepository
	UserRepo       repository.UserRepository
	Processor      handler.SceneProcessor
	UploadStore    handler.UploadStore
	HubClient      *auth.HubClient
	JWTService     *auth.JWTService
	AuthMiddleware *auth.Middleware
	AuditLogger    handler.AuditLogger
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	e.Pre(echomiddleware.RemoveTrailingSlash())

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(deps.Config.Upload.MaxUploadSize))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.Config.App.CORSOrigins,
		AllowMethods:     []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodPut, stdhttp.MethodDelete, stdhttp.MethodOptions},
		AllowCredentials: true,
	}))

	// Global rate limiting
	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	// Strict rate limiting for the OAuth endpoints
	strictRateLimiter := middleware.NewStrictRateLimiter()

	sceneHandler := handler.NewSceneHandler(deps.SceneRepo, deps.Processor, deps.AuditLogger, deps.Config.App.PageSize)
	uploadHandler := handler.NewUploadHandler(deps.UploadStore, deps.SceneRepo, deps.AuditLogger)
	authHandler := handler.NewAuthHandler(deps.HubClient, deps.JWTService, &deps.Config.Hub,
		deps.UserRepo, deps.Config.Upload.PublicBaseURL, deps.Config.JWT.ExpiryDuration, deps.AuditLogger)

	// Stored volume files are served directly; the viewer fetches them by
	// the URLs embedded in scene documents.
	e.Static(local.StaticMountPath, deps.Config.Upload.Dir)

	e.GET("/login", authHandler.Login, strictRateLimiter.Middleware())
	e.GET("/oauth_callback", authHandler.OAuthCallback, strictRateLimiter.Middleware())
	e.GET(apiV1Prefix+"/utils/health-check", healthCheck)

	api := e.Group(apiV1Prefix)
	api.Use(deps.AuthMiddleware.RequireHubUser())

	api.GET("/me", authHandler.Me)

	api.GET("/scenes", sceneHandler.ListScenes)
	api.POST("/scenes", sceneHandler.CreateScene)
	api.DELETE("/scenes", sceneHandler.DeleteAllScenes)
	api.GET("/scenes/:id", sceneHandler.GetScene)
	api.PUT("/scenes/:id", sceneHandler.UpdateScene)
	api.DELETE("/scenes/:id", sceneHandler.DeleteScene)

	api.POST("/upload/files", uploadHandler.UploadFiles)
	api.POST("/upload/scene-with-files", uploadHandler.SceneWithFiles)
	api.GET("/upload/files", uploadHandler.ListFiles)
	api.DELETE("/upload/files/:filename", uploadHandler.DeleteFile)

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// healthCheck responds with a bare true, which is what hub-side liveness
// probes expect.
func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, true)
}
