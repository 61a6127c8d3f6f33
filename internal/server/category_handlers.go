package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// GetCategories handles GET /api/categories?q=
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.ListCategories(c.UserContext(), c.Query("q"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/categories/:id
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	category, err := s.categoryService.GetCategory(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(category)
}

// CreateCategory handles POST /api/categories
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.categoryService.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/categories/:id
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.categoryService.RenameCategory(c.UserContext(), id, req.Name)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.categoryService.DeleteCategory(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(mutationResponse{Message: "Deleted category successfully", ID: id})
}

// GetStatuses handles GET /api/statuses
func (s *Server) GetStatuses(c *fiber.Ctx) error {
	statuses, err := s.categoryService.ListStatuses(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(statuses)
}
