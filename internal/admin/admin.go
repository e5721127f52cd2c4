// Package admin implements the operator CLI: bootstrap a superuser, inspect
// and prune accounts, apply migrations and check database connectivity. It
// talks to the store directly through the same services as the server.
package admin

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/flagx"
	"github.com/dmitrijs2005/taskline/internal/server/config"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskline/internal/server/services"
)

// ErrUsage is returned for an unknown command or bad command flags.
var ErrUsage = errors.New("usage error")

const usage = `Usage: taskline-admin <command> [flags]

Commands:
  create-superuser [-email EMAIL]   create an active superuser (password is prompted)
  list-users [-skip N] [-limit N]   list accounts
  delete-user -id ID [-yes]         delete an account and all of its tasks
  migrate                           apply database migrations
  check-db                          verify the database is reachable

Server configuration flags (-d, -c, -env, ...) and environment variables apply.
`

var commandFlags = []string{"-email", "-skip", "-limit", "-id", "-yes"}

type App struct {
	config      *config.Config
	in          *bufio.Reader
	out         io.Writer
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *services.UserService
}

// NewApp opens the configured store.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	db, rm, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return &App{
		config:      cfg,
		in:          bufio.NewReader(in),
		out:         out,
		db:          db,
		repomanager: rm,
		users:       services.NewUserService(db, rm, cfg),
	}, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Usage prints the command summary.
func Usage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// Run executes one command. args may contain server config flags as well;
// only the command's own flags are parsed here.
func (a *App) Run(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "superuser email")
	id := fs.String("id", "", "user id")
	skip := fs.Int("skip", 0, "rows to skip")
	limit := fs.Int("limit", common.DefaultPageLimit, "rows to show")
	yes := fs.Bool("yes", false, "do not ask for confirmation")

	if err := fs.Parse(flagx.FilterArgs(args, commandFlags)); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	switch command {
	case "create-superuser":
		return a.createSuperuser(ctx, *email)
	case "list-users":
		return a.listUsers(ctx, *skip, *limit)
	case "delete-user":
		return a.deleteUser(ctx, *id, *yes)
	case "migrate":
		return a.migrate(ctx)
	case "check-db":
		return a.checkDB(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

func (a *App) createSuperuser(ctx context.Context, email string) error {
	var err error
	if email == "" {
		email, err = GetSimpleText(a.in, "Email", a.out)
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
	}

	password, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}

	user, created, err := a.users.EnsureSuperuser(ctx, email, password)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(a.out, "User %s already exists (id %s), left unchanged\n", user.Email, user.ID)
		return nil
	}
	fmt.Fprintf(a.out, "Created superuser %s (id %s)\n", user.Email, user.ID)
	return nil
}

func (a *App) listUsers(ctx context.Context, skip, limit int) error {
	users, total, err := a.users.ListUsers(ctx, skip, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tACTIVE\tSUPERUSER\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\n", u.ID, u.Email, u.IsActive, u.IsSuperuser, u.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d of %d users\n", len(users), total)
	return nil
}

func (a *App) deleteUser(ctx context.Context, id string, yes bool) error {
	if id == "" {
		return fmt.Errorf("%w: -id is required", ErrUsage)
	}

	if !yes {
		ok, err := Confirm(a.in, fmt.Sprintf("Delete user %s and all of their tasks?", id), a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted")
			return nil
		}
	}

	if err := a.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted user %s\n", id)
	return nil
}

func (a *App) migrate(ctx context.Context) error {
	if err := a.repomanager.RunMigrations(ctx, a.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}
	fmt.Fprintln(a.out, "Migrations applied")
	return nil
}

func (a *App) checkDB(ctx context.Context) error {
	if a.db == nil {
		fmt.Fprintln(a.out, "Using the in-memory store")
		return nil
	}
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	fmt.Fprintln(a.out, "Database is reachable")
	return nil
}
