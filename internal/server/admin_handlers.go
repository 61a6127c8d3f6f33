package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAdminPosts handles GET /api/admin/posts?page&limit&keyword&category_id&status_id
// and includes drafts.
func (s *Server) GetAdminPosts(c *fiber.Ctx) error {
	p := parseListParams(c, s.config.PageLimit())

	page, err := s.postService.ListAdminPosts(c.UserContext(), service.AdminListPostsInput{
		Page:       p.Page,
		Limit:      p.Limit,
		CategoryID: queryID(c, "category_id"),
		StatusID:   queryID(c, "status_id"),
		Keyword:    p.Keyword,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetAdminMeta handles GET /api/admin/meta
func (s *Server) GetAdminMeta(c *fiber.Ctx) error {
	meta, err := s.adminService.Meta(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(meta)
}

// GetAdminNotifications handles GET /api/admin/notifications
func (s *Server) GetAdminNotifications(c *fiber.Ctx) error {
	feed, err := s.adminService.Notifications(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(feed)
}
