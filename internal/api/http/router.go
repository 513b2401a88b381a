// Package http wires the shortening and resolution services into the
// HTTP API: the /api subtree and the short-code redirect catch-all.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/dkoroteev/linkcut/internal/models"
	"github.com/dkoroteev/linkcut/pkg/response"
)

// URLService defines the core business logic consumed by the handlers.
type URLService interface {
	// Shorten maps the original URL to a short code. The boolean reports
	// whether a new record was created (false means the URL was already
	// shortened and the existing code is returned).
	Shorten(ctx context.Context, rawURL string) (*models.URL, bool, error)

	// Resolve returns the record for a short code and triggers the
	// asynchronous click increment.
	Resolve(ctx context.Context, shortCode string) (*models.URL, error)

	// Stats returns the record for a short code without counting a click.
	Stats(ctx context.Context, shortCode string) (*models.URL, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes the HTTP router with all routes and middleware.
// Short codes and API paths share the same namespace: the /api subtree is
// matched first and the single-segment catch-all handles redirects, so
// everything else falls through to the structured not-found response.
func NewRouter(logger *httplog.Logger, urlSvc URLService, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	})

	r.Route("/api", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.With(middleware.AllowContentType("application/json")).
			Post("/shorten", handleShortenURL(urlSvc, validate, baseURL))

		r.Get("/urls/{shortCode}", handleURLInfo(urlSvc))
	})

	r.Get("/{shortCode}", handleRedirect(urlSvc))

	return r
}
