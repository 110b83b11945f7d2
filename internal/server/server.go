// Package server contains the HTTP handlers and route table for Inkwell.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Page sizes mirror the public feed (5) and the narrower category, tag, and
// dashboard listings (4).
const (
	feedPageSize   = 5
	browsePageSize = 4
)

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	tagRepo      repository.TagRepository
	commentRepo  repository.CommentRepository
	likeRepo     repository.LikeRepository
}

// New wires a Server from already-constructed dependencies. Tests build
// theirs around an in-memory database.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	return &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		userRepo:     repository.NewUserRepository(db),
		postRepo:     repository.NewPostRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		tagRepo:      repository.NewTagRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
		likeRepo:     repository.NewLikeRepository(db),
	}
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return New(cfg, db, cache.GetClient()), nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	prom := fiberprometheus.New("inkwell")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	auth := s.AuthRequired()

	app.Get("/monitor", monitor.New(monitor.Config{Title: "Inkwell Metrics"}))

	// Account lifecycle
	app.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", auth, s.Logout)

	// Author dashboard
	app.Get("/dashboard", auth, s.Dashboard)

	// Public listings
	app.Get("/", s.ListPosts)
	app.Get("/categories", s.ListCategories)
	app.Get("/tag/:slug", s.TagPosts)

	// Category CRUD; /new must be registered before the public /:slug route
	app.Get("/category/new", auth, s.NewCategoryForm)
	app.Post("/category/new", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_category"), s.CreateCategory)
	app.Get("/category/:id/update", auth, s.EditCategoryForm)
	app.Post("/category/:id/update", auth, s.UpdateCategory)
	app.Get("/category/:id/delete", auth, s.ConfirmDeleteCategory)
	app.Post("/category/:id/delete", auth, s.DeleteCategory)
	app.Get("/category/:slug", s.CategoryPosts)

	// Post CRUD and interactions; specific routes before the detail route
	post := app.Group("/post")
	post.Get("/new", auth, s.NewPostForm)
	post.Post("/new", auth, middleware.RateLimit(s.redis, 5, time.Minute, "create_post"), s.CreatePost)
	post.Get("/:slug/update", auth, s.EditPostForm)
	post.Post("/:slug/update", auth, s.UpdatePost)
	post.Get("/:slug/delete", auth, s.ConfirmDeletePost)
	post.Post("/:slug/delete", auth, s.DeletePost)
	post.Get("/:slug/comment", auth, s.RedirectToPost)
	post.Post("/:slug/comment", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	post.Get("/:slug/like", auth, s.RedirectToPost)
	post.Post("/:slug/like", auth, s.ToggleLike)
	post.Get("/:slug", s.PostDetail)
}

// respondError maps the application error taxonomy onto HTTP statuses.
// Storage failures keep their 500 even when they surface through a lookup.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		case "FORBIDDEN":
			return models.RespondWithError(c, fiber.StatusForbidden, appErr)
		case "CONFLICT":
			return models.RespondWithError(c, fiber.StatusConflict, appErr)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseClaims(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(err.Error()))
		}

		userID, err := subjectID(claims)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Logout revokes the token's jti; a revoked token is no session.
		jti, _ := claims["jti"].(string)
		if cache.IsTokenRevoked(c.UserContext(), jti) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Session has been logged out"))
		}

		c.Locals("userID", userID)
		c.Locals("jti", jti)
		if exp, ok := claims["exp"].(float64); ok {
			c.Locals("tokenExp", time.Unix(int64(exp), 0))
		}

		return c.Next()
	}
}

// parseClaims validates the signature, issuer, and audience of a token and
// returns its claims.
func (s *Server) parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("Invalid token claims")
	}

	if issuer, ok := claims["iss"].(string); !ok || issuer != "inkwell-api" {
		return nil, errors.New("Invalid token issuer")
	}
	if audience, ok := claims["aud"].(string); !ok || audience != "inkwell-client" {
		return nil, errors.New("Invalid token audience")
	}

	return claims, nil
}

func subjectID(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("missing subject claim")
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// optionalUserID attempts to extract userID from Authorization header but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	claims, err := s.parseClaims(parts[1])
	if err != nil {
		return 0, false
	}

	if jti, ok := claims["jti"].(string); ok && cache.IsTokenRevoked(c.UserContext(), jti) {
		return 0, false
	}

	userID, err := subjectID(claims)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// Shutdown gracefully releases server resources
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
