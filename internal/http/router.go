package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/quicknotes/internal/config"
	"github.com/geocoder89/quicknotes/internal/http/handlers"
	"github.com/geocoder89/quicknotes/internal/http/middlewares"
	"github.com/geocoder89/quicknotes/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AuthService is everything the router needs from the authenticator: the
// signup and login operations and token verification for the gate.
type AuthService interface {
	handlers.Authenticator
	middlewares.TokenVerifier
}

type Deps struct {
	Log    *slog.Logger
	Config config.Config
	Auth   AuthService
	Notes  handlers.NotesService

	// optional
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Check
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.ErrorContext(c.Request.Context(), "panic recovered", "panic", rec, "route", c.FullPath())
		handlers.RespondError(c, http.StatusInternalServerError, "internal_error", "Server Error", nil)
		c.Abort()
	}))
	r.Use(otelgin.Middleware(d.Config.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestTimeout(d.Config.RequestTimeout))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	r.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, http.StatusNotFound, "not_found", "Not Found", nil)
	})

	// health
	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	api := r.Group("/api")
	api.GET("/ping", health.Ping)

	// auth
	authHandler := handlers.NewAuthHandler(d.Auth, log)

	authGroup := api.Group("/auth")
	authGroup.Use(middlewares.RequireJSON())
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/login", authHandler.Login)

	// notes, all behind the gate
	notesHandler := handlers.NewNotesHandler(d.Notes, log)
	gate := middlewares.NewAuthMiddleware(d.Auth)

	notes := api.Group("/notes")
	// the gate answers before the body is looked at
	notes.Use(gate.RequireAuth(), middlewares.RequireJSON())
	notes.GET("", notesHandler.ListNotes)
	notes.POST("", notesHandler.CreateNote)
	notes.PUT("/:id", notesHandler.UpdateNote)
	notes.DELETE("/:id", notesHandler.DeleteNote)

	return r
}
