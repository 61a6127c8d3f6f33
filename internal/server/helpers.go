package server

import (
	"errors"
	"strings"
	"unicode"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

var errRedisRequired = errors.New("redis is not configured")

// listParams is the normalised listing window and filters of a request.
type listParams struct {
	Page     int
	Limit    int
	Category string
	Keyword  string
}

// parseListParams reads page, limit, category and keyword. Missing or
// non-numeric numbers fall back to the defaults, values below 1 clamp to 1
// and limit is capped.
func parseListParams(c *fiber.Ctx, defaultLimit int) listParams {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > service.MaxPageLimit {
		limit = service.MaxPageLimit
	}

	return listParams{
		Page:     page,
		Limit:    limit,
		Category: strings.TrimSpace(c.Query("category")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}
}

// queryID reads an optional positive ID filter. Anything else means absent.
func queryID(c *fiber.Ctx, key string) uint {
	v := c.QueryInt(key, 0)
	if v < 1 {
		return 0
	}
	return uint(v)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parseBody decodes the JSON body into dst, answering 400 on malformed input.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// currentUserID returns the authenticated caller, or "" for anonymous requests.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// mutationResponse is the body returned by post and category writes.
type mutationResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}
