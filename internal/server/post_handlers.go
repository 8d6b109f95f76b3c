package server

import (
	"ember/internal/middleware"
	"ember/internal/models"
	"ember/internal/notifications"
	"ember/internal/repository"
	"ember/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(string)

	var req struct {
		Content string      `json:"content"`
		TTL     *models.TTL `json:"ttl,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID: userID,
		Content:  req.Content,
		TTL:      req.TTL,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	middleware.PostEvents.WithLabelValues("created").Inc()
	s.publishPostEvent(c, notifications.EventPostCreated, post, userID)

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.Context()

	in, err := parseListQuery(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	posts, svcErr := s.postService.ListPosts(ctx, in)
	if svcErr != nil {
		return s.respondServiceError(c, svcErr)
	}

	meta := fiber.Map{
		"limit": in.Limit,
		"order": in.Order,
	}
	if len(posts) == in.Limit {
		meta["next_cursor"] = repository.EncodeCursor(posts[len(posts)-1])
	}

	return c.JSON(fiber.Map{
		"data": posts,
		"meta": meta,
	})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	includeExpired := c.QueryBool("include_expired", false)

	post, svcErr := s.postService.GetPost(ctx, id, includeExpired)
	if svcErr != nil {
		return s.respondServiceError(c, svcErr)
	}

	return c.JSON(post)
}

// RefreshPostTTL handles POST /api/posts/:id/ttl
// Only the author may extend a post's lifetime, and only while it is active.
func (s *Server) RefreshPostTTL(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(string)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		TTL *models.TTL `json:"ttl,omitempty"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil && len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	existing, svcErr := s.postService.GetPost(ctx, id, false)
	if svcErr != nil {
		return s.respondServiceError(c, svcErr)
	}
	if existing.AuthorID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Only the author can refresh a post"))
	}

	post, svcErr := s.postService.RefreshExpiration(ctx, id, req.TTL)
	if svcErr != nil {
		return s.respondServiceError(c, svcErr)
	}

	middleware.PostEvents.WithLabelValues("ttl_refreshed").Inc()
	s.publishPostEvent(c, notifications.EventPostTTLRefresh, post, userID)

	return c.JSON(post)
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(string)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, svcErr := s.postService.ToggleLike(ctx, id, userID)
	if svcErr != nil {
		return s.respondServiceError(c, svcErr)
	}

	middleware.PostEvents.WithLabelValues("reaction_updated").Inc()
	s.publishPostEvent(c, notifications.EventReactionUpdated, post, userID)

	return c.JSON(post)
}
