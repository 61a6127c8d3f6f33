package main

import (
	"context"

	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/spf13/cobra"
)

// newRoleCommand builds "promote" (grant admin) or "demote" (back to user).
func newRoleCommand(action string) *cobra.Command {
	role, short := models.RoleAdmin, "Grant the admin role to a user"
	if action == "demote" {
		role, short = models.RoleUser, "Revoke the admin role from a user"
	}

	return &cobra.Command{
		Use:   action + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withRuntime(c.Context(), func(ctx context.Context, _ *config.Config, rt *bootstrap.Runtime) error {
				users := service.NewUserService(repository.NewUserRepository(rt.DB), nil, cache.NewStore(rt.Redis))
				user, err := users.SetRole(ctx, args[0], role)
				if err != nil {
					return err
				}
				c.Printf("%s is now %s\n", user.Username, user.Role)
				return nil
			})
		},
	}
}
