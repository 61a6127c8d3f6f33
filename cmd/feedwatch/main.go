// Command feedwatch signs in as an admin and prints the live activity feed
// (new comments and likes) to stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"inkwell/internal/models"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	apiFlag      = "api"
	emailFlag    = "email"
	passwordFlag = "password"
)

var watchFlags = map[string]cobraflags.Flag{
	apiFlag: &cobraflags.StringFlag{
		Name:  apiFlag,
		Value: "http://localhost:8080",
		Usage: "Base URL of the API",
	},
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "admin@example.com",
		Usage: "Admin account email",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "",
		Usage: "Admin account password (falls back to FEEDWATCH_PASSWORD)",
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newWatchCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "feedwatch",
		Short:         "Tail the admin activity feed",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			password := watchFlags[passwordFlag].GetString()
			if password == "" {
				password = os.Getenv("FEEDWATCH_PASSWORD")
			}
			client, err := newFeedClient(watchFlags[apiFlag].GetString())
			if err != nil {
				return err
			}
			return watch(c.Context(), client, watchFlags[emailFlag].GetString(), password, c.OutOrStdout())
		},
	}
	cobraflags.RegisterMap(cmd, watchFlags)
	return cmd
}

func watch(ctx context.Context, client *feedClient, email, password string, out io.Writer) error {
	token, err := client.login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintf(out, "connected as %s, waiting for activity\n", email)
	return client.tail(ctx, token, func(a models.Activity) {
		fmt.Fprintln(out, formatActivity(a))
	})
}

func formatActivity(a models.Activity) string {
	who := "someone"
	if a.User != nil {
		who = a.User.Username
	}
	stamp := a.CreatedAt.Local().Format("2006-01-02 15:04:05")
	switch a.Type {
	case models.ActivityComment:
		return fmt.Sprintf("%s  %s commented on %q: %s", stamp, who, a.Post.Title, a.CommentText)
	case models.ActivityLike:
		return fmt.Sprintf("%s  %s liked %q", stamp, who, a.Post.Title)
	default:
		return fmt.Sprintf("%s  %s on %q", stamp, a.Type, a.Post.Title)
	}
}
