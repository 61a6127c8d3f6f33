package server

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authenticate stores the caller in locals and in the request context.
func authenticate(c *fiber.Ctx, userID string, claims *identity.Claims) {
	c.Locals("userID", userID)
	if claims != nil {
		c.Locals("claims", claims)
	}
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, userID))
}

// consumeTicket exchanges a websocket ticket for the user ID it was issued
// to. Tickets are single-use.
func (s *Server) consumeTicket(ctx context.Context, ticket string) (string, bool) {
	if s.redis == nil || ticket == "" {
		return "", false
	}
	userID, err := s.redis.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "ws ticket lookup failed", "error", err)
		}
		return "", false
	}
	return userID, userID != ""
}

// AuthRequired rejects requests without a valid bearer token. Websocket
// routes authenticate with a ticket instead, since browsers cannot set
// headers on the upgrade request.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if strings.HasPrefix(c.Path(), "/api/ws/") && c.Path() != "/api/ws/ticket" {
			userID, ok := s.consumeTicket(ctx, c.Query("ticket"))
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			authenticate(c, userID, nil)
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.identity.Verify(ctx, token)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, identity.ErrTokenRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		authenticate(c, claims.Subject, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if claims, err := s.identity.Verify(c.UserContext(), token); err == nil {
				authenticate(c, claims.Subject, claims)
			}
		}
		return c.Next()
	}
}

// callerRole returns the caller's role. A role claim is trusted while the
// token is younger than RoleClaimMaxAge; after that the users table decides.
func (s *Server) callerRole(c *fiber.Ctx) (string, error) {
	userID := currentUserID(c)
	if userID == "" {
		return "", nil
	}
	if claims, ok := c.Locals("claims").(*identity.Claims); ok && claims.Role != "" {
		if s.now().Sub(claims.IssuedAt) <= s.config.RoleClaimMaxAge() {
			return claims.Role, nil
		}
	}
	return s.userService.Role(c.UserContext(), userID)
}

// isAdmin reports whether the caller holds the admin role. Lookup failures
// count as not admin.
func (s *Server) isAdmin(c *fiber.Ctx) bool {
	role, err := s.callerRole(c)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "role lookup failed", "error", err)
		return false
	}
	return role == models.RoleAdmin
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := s.callerRole(c)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		if role != models.RoleAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}
