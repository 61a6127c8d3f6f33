package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	return s.GetUser(c)
}

// UpdateMyProfile handles PUT /api/users/me. Omitted fields are left unchanged.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username   *string `json:"username"`
		Name       *string `json:"name"`
		Bio        *string `json:"bio"`
		ProfilePic *string `json:"profile_pic"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		Username:   req.Username,
		Name:       req.Name,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}
