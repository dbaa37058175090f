// Package rest exposes the alumnae services over HTTP/JSON.
package rest

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/metrics"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// AuthService is the account side of the API.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*services.Session, error)
	Login(ctx context.Context, login, password string) (*services.Session, error)
	Logout(ctx context.Context, token, userID string) error
	ChangePassword(ctx context.Context, user *models.User, current, next string) error
}

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type BatchYearService interface {
	List(ctx context.Context) ([]*models.BatchYear, error)
	Create(ctx context.Context, year int) (*models.BatchYear, error)
	Delete(ctx context.Context, id string) error
}

type AlumniService interface {
	List(ctx context.Context) ([]*services.AlumnaDetails, error)
	Grouped(ctx context.Context, name string) ([]*services.AlumniGroup, error)
	SearchByName(ctx context.Context, name string) ([]*services.AlumnaDetails, error)
	AdvancedSearch(ctx context.Context, f models.AlumnaFilter) ([]*services.AlumnaDetails, error)
	ByYearRange(ctx context.Context, from, to int) ([]*services.AlumnaDetails, error)
	ByYear(ctx context.Context, year int) ([]*services.AlumnaDetails, error)
	ByBatch(ctx context.Context, batchYearID string) ([]*services.AlumnaDetails, error)
	Get(ctx context.Context, id string) (*services.AlumnaDetails, error)
	Create(ctx context.Context, in services.AlumnaInput, student, current *services.Upload) (*services.AlumnaDetails, error)
	Update(ctx context.Context, id string, p services.AlumnaPatch, student, current *services.Upload) (*services.AlumnaDetails, error)
	UpdateCurrentPicture(ctx context.Context, id string, current *services.Upload) (*services.AlumnaDetails, error)
	Delete(ctx context.Context, id string) error
}

type EventService interface {
	List(ctx context.Context) ([]*models.Event, error)
	Search(ctx context.Context, q services.EventQuery) ([]*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, in services.EventInput, createdBy string) (*models.Event, error)
	Update(ctx context.Context, id string, p services.EventPatch) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// Services are the handlers' collaborators.
type Services struct {
	Auth       AuthService
	Guard      Authenticator
	BatchYears BatchYearService
	Alumni     AlumniService
	Events     EventService
}

// Options tune the HTTP server.
type Options struct {
	Address        string
	LoginRateLimit float64
	LoginRateBurst int
	MaxUploadSize  int64
	Metrics        *metrics.Metrics
}

type HTTPServer struct {
	address  string
	app      *fiber.App
	svc      Services
	metrics  *metrics.Metrics
	limiters *RateLimiterRegistry
	logger   logging.Logger
}

func NewHTTPServer(opts Options, l logging.Logger, svc Services) *HTTPServer {
	s := &HTTPServer{
		address:  opts.Address,
		svc:      svc,
		metrics:  opts.Metrics,
		limiters: NewRateLimiterRegistry(opts.LoginRateLimit, opts.LoginRateBurst),
		logger:   l.With("module", "http_server"),
	}

	bodyLimit := 4 << 20
	if opts.MaxUploadSize > 0 {
		// two pictures plus the form fields
		bodyLimit = int(2*opts.MaxUploadSize) + 1<<20
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "ssa-alumnae",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.routes()
	return s
}

// App returns the underlying fiber application.
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

func (s *HTTPServer) routes() {
	app := s.app

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(s.accessLog)
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", s.health)
	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.register)
	auth.Post("/login", s.rateLimit, s.login)
	auth.Post("/logout", s.requireAuth, s.logout)
	auth.Get("/me", s.requireAuth, s.me)
	auth.Put("/change-password", s.requireAuth, s.changePassword)

	years := api.Group("/batch-years")
	years.Get("/", s.listBatchYears)
	years.Post("/", s.requireAuth, s.requireAdmin, s.createBatchYear)
	years.Delete("/:id", s.requireAuth, s.requireAdmin, s.deleteBatchYear)

	alumni := api.Group("/alumni")
	alumni.Get("/", s.listAlumni)
	alumni.Get("/grouped", s.groupedAlumni)
	alumni.Get("/search", s.searchAlumni)
	alumni.Get("/advanced-search", s.advancedSearchAlumni)
	alumni.Get("/years", s.alumniByYearRange)
	alumni.Get("/batch/:batchYearId", s.alumniByBatch)
	alumni.Get("/year/:year", s.alumniByYear)
	alumni.Get("/:id", s.getAlumna)
	alumni.Post("/", s.requireAuth, s.requireAdmin, s.createAlumna)
	alumni.Put("/:id", s.requireAuth, s.requireAdmin, s.updateAlumna)
	alumni.Delete("/:id", s.requireAuth, s.requireAdmin, s.deleteAlumna)
	alumni.Put("/:id/current-picture", s.requireAuth, s.updateCurrentPicture)

	events := api.Group("/events")
	events.Get("/", s.listEvents)
	events.Get("/search", s.searchEvents)
	events.Get("/:id", s.getEvent)
	events.Post("/", s.requireAuth, s.requireAdmin, s.createEvent)
	events.Put("/:id", s.requireAuth, s.requireAdmin, s.updateEvent)
	events.Delete("/:id", s.requireAuth, s.requireAdmin, s.deleteEvent)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
	return s.app.Listen(s.address)
}

func (s *HTTPServer) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "SSA Alumnae API is running!"})
}
