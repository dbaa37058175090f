package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
)

var errPasswordMismatch = errors.New("passwords do not match")

type Tool struct {
	connect ConnectFunc
	in      *bufio.Reader
	out     io.Writer
}

func NewTool(connect ConnectFunc, in io.Reader, out io.Writer) *Tool {
	return &Tool{connect: connect, in: bufio.NewReader(in), out: out}
}

// App creates the CLI application.
func (t *Tool) App() *cli.App {
	return &cli.App{
		Name:      "alumnae-admin",
		Usage:     "SSA Alumnae API maintenance tool",
		Writer:    t.out,
		ErrWriter: t.out,
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			t.migrateCommand(),
			t.createAdminCommand(),
			t.promoteCommand(),
			t.pruneTokensCommand(),
		},
	}
}

// globalFlags mirrors the server's short flags; their values are read by
// config.LoadConfig.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to JSON config file",
		},
		&cli.StringFlag{
			Name:  "envfile",
			Usage: "Path to .env file",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:    "dsn",
			Aliases: []string{"d"},
			Usage:   "PostgreSQL DSN",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Log level: debug, info, warn, error",
		},
	}
}

// withBackend connects, runs fn and closes the backend.
func (t *Tool) withBackend(c *cli.Context, fn func(ctx context.Context, b *Backend) error) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := t.connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer b.Close()

	return fn(ctx, b)
}

func (t *Tool) migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations",
		Action: func(c *cli.Context) error {
			return t.withBackend(c, func(ctx context.Context, b *Backend) error {
				if err := b.Migrator.RunMigrations(ctx, b.DB); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(t.out, "Migrations applied")
				return nil
			})
		},
	}
}

func (t *Tool) createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username"},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
		},
		Action: t.createAdmin,
	}
}

func (t *Tool) createAdmin(c *cli.Context) error {
	username, err := t.valueOrPrompt(c.String("username"), "Username")
	if err != nil {
		return err
	}
	email, err := t.valueOrPrompt(c.String("email"), "Email")
	if err != nil {
		return err
	}

	password, err := GetPassword(t.out, "Enter password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer wipe(password)

	confirm, err := GetPassword(t.out, "Confirm password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer wipe(confirm)

	if string(password) != string(confirm) {
		return errPasswordMismatch
	}

	return t.withBackend(c, func(ctx context.Context, b *Backend) error {
		u, err := b.Accounts.CreateAdmin(ctx, username, email, string(password))
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		fmt.Fprintf(t.out, "Admin %s created (id %s)\n", u.Username, u.ID)
		return nil
	})
}

func (t *Tool) valueOrPrompt(v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	v, err := GetSimpleText(t.in, prompt, t.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", prompt, err)
	}
	return v, nil
}

func (t *Tool) promoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "promote",
		Usage:     "Grant admin rights to an existing user",
		ArgsUsage: "<username-or-email>",
		Action: func(c *cli.Context) error {
			login := c.Args().First()
			if login == "" {
				return errors.New("username or email is required")
			}
			return t.withBackend(c, func(ctx context.Context, b *Backend) error {
				u, err := b.Accounts.Promote(ctx, login)
				if err != nil {
					return fmt.Errorf("promote %s: %w", login, err)
				}
				fmt.Fprintf(t.out, "%s is now an admin\n", u.Username)
				return nil
			})
		},
	}
}

func (t *Tool) pruneTokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune-tokens",
		Usage: "Delete revoked tokens that have already expired",
		Action: func(c *cli.Context) error {
			return t.withBackend(c, func(ctx context.Context, b *Backend) error {
				n, err := b.Pruner.Prune(ctx, b.now())
				if err != nil {
					return fmt.Errorf("prune tokens: %w", err)
				}
				fmt.Fprintf(t.out, "Removed %d expired revoked tokens\n", n)
				return nil
			})
		},
	}
}
