package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/danielgermany/penny-cli/internal/session"
)

func (a *App) runUser(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: penny user create|list|deactivate")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ContinueOnError)
		username := fs.String("username", "", "unique username (required)")
		email := fs.String("email", "", "email address")
		name := fs.String("name", "", "display name")
		password := fs.String("password", "", "password; omit for a passwordless local user")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *username == "" {
			return fmt.Errorf("--username is required")
		}

		u, err := a.users.Create(ctx, *username, *email, *name, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created user %s (id %d)\n", u.Username, u.ID)
		return nil

	case "list":
		users, err := a.users.List(ctx)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tACTIVE")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", u.ID, u.Username, u.DisplayName, u.IsActive)
		}
		return w.Flush()

	case "deactivate":
		fs := flag.NewFlagSet("user deactivate", flag.ContinueOnError)
		username := fs.String("username", "", "user to deactivate (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *username == "" {
			return fmt.Errorf("--username is required")
		}
		if err := a.users.Deactivate(ctx, *username); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deactivated %s\n", *username)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand %q", args[0])
	}
}

func (a *App) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "username (required)")
	password := fs.String("password", "", "password if the account requires one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("--username is required")
	}

	u, err := a.users.Authenticate(ctx, *username, *password)
	if err != nil {
		return err
	}
	if err := a.sessions.Save(session.Session{UserID: u.ID, Username: u.Username}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Username)
	return nil
}

func (a *App) runLogout(context.Context) error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) runWhoami(ctx context.Context) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (id %d)\n", sess.Username, sess.UserID)
	return nil
}
