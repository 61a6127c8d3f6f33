package server

import (
	"encoding/json"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is the body of a post create or full replace. Fields are kept
// raw so a value of the wrong type becomes a field error rather than a
// rejected body.
type postRequest struct {
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Content     json.RawMessage `json:"content"`
	Image       json.RawMessage `json:"image"`
	CategoryID  json.RawMessage `json:"category_id"`
	StatusID    json.RawMessage `json:"status_id"`
}

// decodeField unmarshals a present, non-null raw value into dst and flags
// field as malformed when the JSON type does not fit.
func decodeField[T any](malformed map[string]bool, field string, raw json.RawMessage, dst *T) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		malformed[field] = true
		return false
	}
	return true
}

func (r postRequest) input(authorID string) service.PostInput {
	in := service.PostInput{AuthorID: authorID, Malformed: map[string]bool{}}

	decodeField(in.Malformed, "title", r.Title, &in.Title)
	decodeField(in.Malformed, "content", r.Content, &in.Content)
	decodeField(in.Malformed, "image", r.Image, &in.Image)
	decodeField(in.Malformed, "category_id", r.CategoryID, &in.CategoryID)
	decodeField(in.Malformed, "status_id", r.StatusID, &in.StatusID)

	var description string
	if decodeField(in.Malformed, "description", r.Description, &description) {
		in.Description = &description
	}
	return in
}

// GetPosts handles GET /api/posts?page&limit&category&keyword. limit is
// capped at service.MaxPageLimit (100) and the response reports the limit
// actually applied.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parseListParams(c, s.config.PageLimit())

	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Page:     p.Page,
		Limit:    p.Limit,
		Category: p.Category,
		Keyword:  p.Keyword,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id. Admins may also read drafts.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, s.isAdmin(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), req.input(currentUserID(c)))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mutationResponse{
		Message: "Created post successfully",
		ID:      post.ID,
	})
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if _, err := s.postService.UpdatePost(c.UserContext(), id, req.input("")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(mutationResponse{Message: "Updated post successfully", ID: id})
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(mutationResponse{Message: "Deleted post successfully", ID: id})
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.postService.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetLikeStatus handles GET /api/posts/:id/like
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.postService.LikeStatus(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}
