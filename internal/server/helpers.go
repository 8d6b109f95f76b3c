package server

import (
	"errors"
	"log/slog"
	"time"

	"ember/internal/middleware"
	"ember/internal/models"
	"ember/internal/repository"
	"ember/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxPaginationLimit = 100

// parseID extracts a route parameter by name as a UUID string.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (string, error) {
	id := c.Params(param)
	if _, err := uuid.Parse(id); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return "", errResponseWritten
	}
	return id, nil
}

// parseListQuery extracts the listing filters and pagination parameters.
func parseListQuery(c *fiber.Ctx) (service.ListPostsInput, error) {
	in := service.ListPostsInput{
		AuthorID:       c.Query("author_id"),
		IncludeExpired: c.QueryBool("include_expired", false),
		Cursor:         c.Query("cursor"),
	}

	limit := c.QueryInt("limit", repository.DefaultPageSize)
	if limit <= 0 {
		limit = repository.DefaultPageSize
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	in.Limit = limit

	switch order := c.Query("order", repository.OrderDesc); order {
	case repository.OrderAsc, repository.OrderDesc:
		in.Order = order
	default:
		return in, models.NewValidationError("order must be 'asc' or 'desc'")
	}

	if raw := c.Query("created_before"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, models.NewValidationError("created_before must be RFC 3339")
		}
		in.CreatedBefore = &ts
	}
	if raw := c.Query("created_after"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, models.NewValidationError("created_after must be RFC 3339")
		}
		in.CreatedAfter = &ts
	}

	return in, nil
}

// respondServiceError maps service error codes to HTTP statuses.
func (s *Server) respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case models.HasCode(err, models.CodeValidation):
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	case models.HasCode(err, models.CodeNotFound):
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	case models.HasCode(err, models.CodeUnauthorized):
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	default:
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
}

// publishPostEvent broadcasts a lifecycle event; failures are logged, never
// surfaced to the request.
func (s *Server) publishPostEvent(c *fiber.Ctx, eventType string, post *models.Post, actorID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishPostEvent(c.Context(), eventType, post, actorID); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to publish post event",
			slog.String("event", eventType),
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()),
		)
	}
}
