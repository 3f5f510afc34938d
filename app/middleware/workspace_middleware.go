// Package middleware provides HTTP middleware for tenant scoping and observability
package middleware

import (
	"github.com/arclabs/arc/app/dto"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// WorkspaceScope extracts the tenant scope from the X-Workspace-ID header
// and places it in request locals. Every workspace-owned route sits behind
// this middleware; requests without a valid scope never reach a handler.
func WorkspaceScope() fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := c.Get("X-Workspace-ID")
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "Workspace scope is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_WORKSPACE_SCOPE",
				},
			})
		}
		if _, err := uuid.Parse(raw); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "Workspace ID must be a valid UUID",
				Error: dto.ErrorDetail{
					Code: "INVALID_WORKSPACE_SCOPE",
				},
			})
		}

		c.Locals("workspace_uuid", raw)
		if userID := c.Get("X-User-ID"); userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	}
}
