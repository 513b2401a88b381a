package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/dkoroteev/linkcut/internal/database"
	"github.com/dkoroteev/linkcut/internal/models"
	"github.com/dkoroteev/linkcut/internal/service"
	"github.com/dkoroteev/linkcut/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type shortenRequest struct {
	URL string `json:"url" validate:"required"`
}

type shortenResponse struct {
	Success     bool   `json:"success"`
	ShortCode   string `json:"shortCode"`
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
	Message     string `json:"message"`
}

type urlInfo struct {
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toURLInfo(url *models.URL) urlInfo {
	return urlInfo{
		OriginalURL: url.OriginalURL,
		ShortCode:   url.ShortCode,
		Clicks:      url.Clicks,
		CreatedAt:   url.CreatedAt,
	}
}

// handleShortenURL handles POST /api/shorten. A newly created record is
// reported with 201; shortening an already known URL is not an error and
// returns the existing code with 200.
func handleShortenURL(svc URLService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, created, err := svc.Shorten(r.Context(), req.URL)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, database.ErrStorageUnavailable):
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.StorageUnavailableResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		resp := shortenResponse{
			Success:     true,
			ShortCode:   url.ShortCode,
			ShortURL:    baseURL + "/" + url.ShortCode,
			OriginalURL: url.OriginalURL,
		}

		if created {
			resp.Message = "The URL has been shortened successfully."
			render.Status(r, http.StatusCreated)
		} else {
			resp.Message = "The URL was already shortened."
			render.Status(r, http.StatusOK)
		}

		render.JSON(w, r, resp)
	}
}

// handleRedirect handles GET /{shortCode}: a permanent redirect to the
// original URL. The click increment happens inside the service, detached
// from this request.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.Resolve(r.Context(), shortCode)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidShortCode):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidShortCodeResponse)
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ShortCodeNotFoundResponse(shortCode))
			case errors.Is(err, database.ErrStorageUnavailable):
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.StorageUnavailableResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		http.Redirect(w, r, url.OriginalURL, http.StatusMovedPermanently)
	}
}

// handleURLInfo handles GET /api/urls/{shortCode}: record metadata
// without counting a click.
func handleURLInfo(svc URLService) http.HandlerFunc {
	const op = "api.http.handleURLInfo"
	const successMsg = "The URL information retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.Stats(r.Context(), shortCode)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidShortCode):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidShortCodeResponse)
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ShortCodeNotFoundResponse(shortCode))
			case errors.Is(err, database.ErrStorageUnavailable):
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.StorageUnavailableResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLInfo(url)))
	}
}
