// Package server contains the HTTP and WebSocket handlers of the blog API.
package server

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	now            func() time.Time

	identity        identity.Provider
	notifier        *notifications.Notifier
	hub             *notifications.Hub
	postService     *service.PostService
	commentService  *service.CommentService
	categoryService *service.CategoryService
	adminService    *service.AdminService
	userService     *service.UserService
}

// NewServerWithDeps creates a Server from an already-connected database and
// Redis client. rdb may be nil; caching, rate limiting and cross-instance
// fan-out are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	posts := repository.NewPostRepository(db)
	likes := repository.NewLikeRepository(db)
	comments := repository.NewCommentRepository(db)
	categories := repository.NewCategoryRepository(db)
	statuses := repository.NewStatusRepository(db)
	users := repository.NewUserRepository(db)
	activity := repository.NewActivityRepository(db)

	store := cache.NewStore(rdb)
	notifier := notifications.NewNotifier(rdb)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          rdb,
		promMiddleware: observability.HTTPMetrics("inkwell-api"),
		now:            time.Now,
		notifier:       notifier,
		hub:            notifications.NewHub(),
	}

	// Tokens embed the role current at sign-in, which the user service owns.
	provider := identity.NewLocalProvider(db, rdb, identity.LocalConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		TokenTTL:   cfg.TokenTTL(),
		BcryptCost: cfg.BcryptCost,
	}, func(ctx context.Context, subject string) (string, error) {
		return s.userService.Role(ctx, subject)
	})
	s.identity = provider

	s.userService = service.NewUserService(users, provider, store)
	s.postService = service.NewPostService(service.PostServiceDeps{
		Posts:        posts,
		Likes:        likes,
		Categories:   categories,
		Statuses:     statuses,
		Users:        users,
		Cache:        store,
		Events:       notifier,
		DefaultLimit: cfg.PageLimit(),
	})
	s.commentService = service.NewCommentService(comments, posts, users, notifier)
	s.categoryService = service.NewCategoryService(categories, statuses, store)
	s.adminService = service.NewAdminService(s.categoryService, activity)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Copies request and trace IDs into the request context for slog.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers browsers need.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Coarse per-IP ceiling; the sensitive routes carry their own Redis limits.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  models.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/get-user", s.AuthRequired(), s.GetUser)
	auth.Put("/reset-password", s.AuthRequired(), s.ResetPassword)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	users := api.Group("/users", s.AuthRequired())
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)

	// Specific /:id/:resource routes are registered before the generic /:id ones.
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.AuthRequired(),
		middleware.RateLimit(s.redis, 5, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.AuthRequired(), s.DeleteComment)
	posts.Get("/:id/like", s.AuthRequired(), s.GetLikeStatus)
	posts.Post("/:id/like", s.AuthRequired(), s.ToggleLike)
	posts.Get("/:id", s.OptionalAuth(), s.GetPost)
	posts.Post("/", s.AuthRequired(), s.AdminRequired(), s.CreatePost)
	posts.Put("/:id", s.AuthRequired(), s.AdminRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.AdminRequired(), s.DeletePost)

	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Get("/:id", s.GetCategory)
	categories.Post("/", s.AuthRequired(), s.AdminRequired(), s.CreateCategory)
	categories.Put("/:id", s.AuthRequired(), s.AdminRequired(), s.UpdateCategory)
	categories.Delete("/:id", s.AuthRequired(), s.AdminRequired(), s.DeleteCategory)

	api.Get("/statuses", s.GetStatuses)

	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/posts", s.GetAdminPosts)
	admin.Get("/meta", s.GetAdminMeta)
	admin.Get("/notifications", s.GetAdminNotifications)

	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws/notifications", s.AuthRequired(), s.AdminRequired(), s.AdminFeedHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   s.now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "disabled"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": s.now().UTC(),
	})
}

// errorHandler renders errors that escaped a handler in the standard envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return models.RespondWithAppError(c, err)
}

// App builds the Fiber application with middleware and routes attached.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start wires the admin feed hub and serves until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	go func() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start admin feed wiring", "error", err)
		}
	}()

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes websocket clients. The
// database and Redis belong to the caller and stay open.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var err error
	if s.app != nil {
		if serr := s.app.ShutdownWithContext(ctx); serr != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", serr)
			err = serr
		}
	}

	if herr := s.hub.Shutdown(ctx); herr != nil {
		middleware.Logger.Error("error shutting down admin feed hub", "error", herr)
	}

	middleware.Logger.Info("server shutdown complete")
	return err
}
