package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"shortlink/internal/auth"
	"shortlink/internal/domain"
	"shortlink/internal/geo"
	"shortlink/internal/middleware"
	"shortlink/internal/qr"
	"shortlink/internal/service"
	"shortlink/internal/validation"
)

var (
	errInvalidBody     = map[string]string{"error": "invalid request body"}
	errURLRequired     = map[string]string{"error": "url is required"}
	errInvalidURL      = map[string]string{"error": "invalid url format"}
	errUnsafeURL       = map[string]string{"error": "url protocol not allowed"}
	errURLTooLong      = map[string]string{"error": "url exceeds maximum length"}
	errPrivateIP       = map[string]string{"error": "private ip addresses not allowed"}
	errInvalidSlug     = map[string]string{"error": "slug must be 3-20 characters of letters, digits, hyphen or underscore"}
	errSlugTaken       = map[string]string{"error": "slug already taken"}
	errLinkNotFound    = map[string]string{"error": "link not found"}
	errLinkDeactivated = map[string]string{"error": "link deactivated"}
	errLinkExpired     = map[string]string{"error": "link expired"}
	errNotOwner        = map[string]string{"error": "not the link owner"}
	errCreateFailed    = map[string]string{"error": "failed to create short link"}
	errInternal        = map[string]string{"error": "internal error"}
	errStoreDown       = map[string]string{"status": "store unavailable"}
	respOK             = map[string]string{"status": "ok"}
)

type Handler struct {
	links    LinkService
	recorder ClickRecorder
	pinger   Pinger
	logger   *slog.Logger
}

func New(links LinkService, recorder ClickRecorder, pinger Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		links:    links,
		recorder: recorder,
		pinger:   pinger,
		logger:   logger,
	}
}

func (h *Handler) Register(e *echo.Echo, verifier auth.Verifier, locator geo.Locator) {
	requireAuth := middleware.RequireAuth(verifier)

	e.GET("/health", h.Health)
	e.POST("/shorten", h.Shorten, requireAuth)
	e.GET("/s/:slug", h.Redirect, middleware.CollectClick(locator))
	e.GET("/user/urls", h.ListLinks, requireAuth)
	e.GET("/user/url/:slug", h.Analytics, requireAuth)
	e.POST("/url/:slug/deactivate", h.Deactivate, requireAuth)
	e.DELETE("/url/:slug", h.Delete, requireAuth)
	e.GET("/url/:slug/qr", h.QRCode, requireAuth)
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.pinger.Ping(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusServiceUnavailable, errStoreDown)
	}
	return c.JSON(http.StatusOK, respOK)
}

func (h *Handler) Shorten(c echo.Context) error {
	var req domain.ShortenRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("failed to bind request", slog.String("error", err.Error()))
		return c.JSON(http.StatusBadRequest, errInvalidBody)
	}

	ownerID := middleware.IdentityFrom(c).OwnerID
	resp, err := h.links.Create(c.Request().Context(), ownerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSlug):
			return c.JSON(http.StatusBadRequest, errInvalidSlug)
		case errors.Is(err, service.ErrSlugTaken):
			return c.JSON(http.StatusConflict, errSlugTaken)
		case isValidationError(err):
			return h.validationErrorResponse(c, err)
		}
		h.logger.Error("failed to create short link", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errCreateFailed)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Redirect(c echo.Context) error {
	slug := c.Param("slug")

	link, err := h.links.Resolve(c.Request().Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, errLinkNotFound)
		case errors.Is(err, service.ErrDeactivated):
			return c.JSON(http.StatusGone, errLinkDeactivated)
		case errors.Is(err, service.ErrExpired):
			return c.JSON(http.StatusGone, errLinkExpired)
		}
		h.logger.Error("failed to resolve link", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errInternal)
	}

	if event := middleware.ClickFrom(c); event != nil {
		event.Slug = link.Slug
		h.recorder.Record(event)
	}

	return c.Redirect(http.StatusFound, link.OriginalURL)
}

func (h *Handler) ListLinks(c echo.Context) error {
	ownerID := middleware.IdentityFrom(c).OwnerID

	links, err := h.links.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list links", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errInternal)
	}
	if links == nil {
		links = []*domain.UserLink{}
	}
	return c.JSON(http.StatusOK, links)
}

func (h *Handler) Analytics(c echo.Context) error {
	ownerID := middleware.IdentityFrom(c).OwnerID

	summary, err := h.links.Summarize(c.Request().Context(), ownerID, c.Param("slug"))
	if err != nil {
		return h.ownedLinkError(c, err, "failed to summarize clicks")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Deactivate(c echo.Context) error {
	ownerID := middleware.IdentityFrom(c).OwnerID

	if err := h.links.Deactivate(c.Request().Context(), ownerID, c.Param("slug")); err != nil {
		return h.ownedLinkError(c, err, "failed to deactivate link")
	}
	return c.JSON(http.StatusOK, respOK)
}

func (h *Handler) Delete(c echo.Context) error {
	ownerID := middleware.IdentityFrom(c).OwnerID

	if err := h.links.Delete(c.Request().Context(), ownerID, c.Param("slug")); err != nil {
		return h.ownedLinkError(c, err, "failed to delete link")
	}
	return c.JSON(http.StatusOK, respOK)
}

func (h *Handler) QRCode(c echo.Context) error {
	ownerID := middleware.IdentityFrom(c).OwnerID
	slug := c.Param("slug")

	_, err := h.links.Get(c.Request().Context(), ownerID, slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, errLinkNotFound)
		case errors.Is(err, service.ErrUnauthorized):
			// The QR route admits the link exists; analytics routes do not.
			return c.JSON(http.StatusForbidden, errNotOwner)
		}
		h.logger.Error("failed to find link", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errInternal)
	}

	png, err := qr.Encode(h.links.ShortURL(slug))
	if err != nil {
		h.logger.Error("failed to encode qr code", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errInternal)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// ownedLinkError maps owner-scoped failures. A caller probing someone
// else's slug gets the same 404 as a missing slug.
func (h *Handler) ownedLinkError(c echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusNotFound, errLinkNotFound)
	}
	h.logger.Error(logMsg, slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, errInternal)
}

func isValidationError(err error) bool {
	return errors.Is(err, validation.ErrEmptyURL) ||
		errors.Is(err, validation.ErrInvalidURLFormat) ||
		errors.Is(err, validation.ErrUnsafeProtocol) ||
		errors.Is(err, validation.ErrURLTooLong) ||
		errors.Is(err, validation.ErrPrivateIPNotAllowed)
}

func (h *Handler) validationErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, validation.ErrEmptyURL):
		return c.JSON(http.StatusBadRequest, errURLRequired)
	case errors.Is(err, validation.ErrInvalidURLFormat):
		return c.JSON(http.StatusBadRequest, errInvalidURL)
	case errors.Is(err, validation.ErrUnsafeProtocol):
		return c.JSON(http.StatusBadRequest, errUnsafeURL)
	case errors.Is(err, validation.ErrURLTooLong):
		return c.JSON(http.StatusBadRequest, errURLTooLong)
	case errors.Is(err, validation.ErrPrivateIPNotAllowed):
		return c.JSON(http.StatusBadRequest, errPrivateIP)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "validation failed"})
	}
}
