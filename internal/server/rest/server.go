// Package rest exposes the server's services over a JSON HTTP API built on
// fiber.
package rest

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/logging"
	"github.com/dmitrijs2005/ideforge/internal/server/metrics"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/dmitrijs2005/ideforge/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type UserAPI interface {
	Signup(ctx context.Context, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Authenticate(token string) (*services.Session, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

type ProjectAPI interface {
	List(ctx context.Context, userID string) ([]*models.Project, error)
	Create(ctx context.Context, userID, name, description string) (*models.Project, error)
	Get(ctx context.Context, userID, id string) (*models.Project, error)
	Update(ctx context.Context, userID, id string, patch models.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, userID, id string) error
}

type ProvisioningAPI interface {
	ProvisionProject(ctx context.Context, userID, projectID, prompt string) (models.ProvisionResult, error)
	TerminateProject(ctx context.Context, userID, projectID string) (models.TerminationResult, error)
	RunFlow(ctx context.Context, message string) models.FlowResult
}

type SyncAPI interface {
	SyncProjectStatuses(ctx context.Context) models.SyncResult
}

type PlanAPI interface {
	Generate(ctx context.Context, prompt string) (*models.Plan, error)
}

// Services groups the handlers' dependencies.
type Services struct {
	Users        UserAPI
	Projects     ProjectAPI
	Provisioning ProvisioningAPI
	Sync         SyncAPI
	Plan         PlanAPI
}

// Options tunes transport behaviour.
type Options struct {
	// Production marks session cookies Secure.
	Production bool
	// AllowedOrigins is a comma-separated CORS origin list.
	AllowedOrigins string
	// AuthRateLimit caps signup/login requests per IP per minute; 0 disables.
	AuthRateLimit int
	// SessionTTL is the cookie lifetime; defaults to common.SessionTTL.
	SessionTTL time.Duration
	// Health reports readiness of backing stores for /healthz.
	Health func(ctx context.Context) error
}

// Server is the HTTP front of the application.
type Server struct {
	app  *fiber.App
	svc  Services
	opts Options
	log  logging.Logger
}

func NewServer(svc Services, opts Options, log logging.Logger) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = common.SessionTTL
	}
	s := &Server{svc: svc, opts: opts, log: log.With("module", "rest")}

	s.app = fiber.New(fiber.Config{
		AppName:               "ideforge",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.corsMiddleware())
	s.app.Use(s.requestLogger())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := s.app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", s.rateLimitAuth(), s.signup)
	auth.Post("/login", s.rateLimitAuth(), s.login)
	auth.Post("/logout", s.logout)
	auth.Get("/me", s.requireSession, s.me)

	projects := api.Group("/projects", s.requireSession)
	projects.Get("/", s.listProjects)
	projects.Post("/", s.createProject)
	projects.Post("/sync", s.syncProjects)
	projects.Get("/:id", s.getProject)
	projects.Patch("/:id", s.updateProject)
	projects.Delete("/:id", s.deleteProject)
	projects.Post("/:id/provision", s.provisionProject)
	projects.Post("/:id/terminate", s.terminateProject)

	api.Post("/flows/run", s.requireSession, s.runFlow)
	api.Post("/plan", s.requireSession, s.plan)
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) corsMiddleware() fiber.Handler {
	origins := strings.TrimSpace(s.opts.AllowedOrigins)
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
	})
}

// rateLimitAuth limits auth endpoints per IP.
func (s *Server) rateLimitAuth() fiber.Handler {
	if s.opts.AuthRateLimit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        s.opts.AuthRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		},
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	if s.opts.Health != nil {
		if err := s.opts.Health(c.UserContext()); err != nil {
			s.log.Warn(c.UserContext(), "health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
