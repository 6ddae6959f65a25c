package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/geofield/worksheet-system/internal/api/handler"
	"github.com/geofield/worksheet-system/internal/api/middleware"
	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// Services groups the application services the router exposes.
type Services struct {
	Accounts   ports.AccountService
	Users      ports.UserService
	Worksheets ports.WorksheetService
	Sessions   ports.SessionStore
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, svc Services, sessionSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("worksheet"))

	session := middleware.Session(sessionSecret, svc.Sessions)
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleBackoffice)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(svc.Accounts, sessionSecret)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, session)
	e.POST("/auth/change-password", authHandler.ChangePassword, session)

	// --- Account directory ---
	userHandler := handler.NewUserHandler(svc.Users)
	users := e.Group("/v1/users", session)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update)
	users.POST("/:id/role", userHandler.ChangeRole, staff)
	users.POST("/:id/status", userHandler.ToggleStatus, staff)
	users.DELETE("/:id", userHandler.Delete, staff)

	// --- Worksheets ---
	worksheetHandler := handler.NewWorksheetHandler(svc.Worksheets)
	worksheets := e.Group("/v1/worksheets", session, staff)
	worksheets.GET("", worksheetHandler.List)
	worksheets.POST("/import", worksheetHandler.Import)
	worksheets.GET("/:id", worksheetHandler.Get)
	worksheets.PATCH("/:id", worksheetHandler.Update)
	worksheets.DELETE("/:id", worksheetHandler.Delete)
	worksheets.DELETE("/:id/features/:fid", worksheetHandler.DeleteFeature)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
