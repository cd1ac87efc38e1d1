package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"userRegistration/internal/auth"
	"userRegistration/internal/config"
	"userRegistration/internal/db"
	"userRegistration/internal/logging"
	"userRegistration/repository"
)

// errInvalidCredentials makes `auth` exit non-zero without being a storage failure.
var errInvalidCredentials = errors.New("invalid username or password")

type globalOptions struct {
	DB string `long:"db" description:"path to the SQLite store (overrides DB_PATH)"`
}

type app struct {
	opts   globalOptions
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, ferr.Message)
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a := &app{cfg: cfg, logger: logger, out: out}
	parser := flags.NewParser(&a.opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "registration"
	commands := []struct {
		name, short, long string
		data              interface{}
	}{
		{"init", "Create the store", "Create the store file and users table if they do not exist.", &initCommand{app: a}},
		{"add", "Register a user", "Insert a user. An existing username is left unchanged.", &addCommand{app: a}},
		{"auth", "Check a password", "Check a username and password against the store.", &authCommand{app: a}},
		{"list", "List users", "Print every user in insertion order.", &listCommand{app: a}},
		{"whoami", "Resolve a session token", "Print the user a session token was issued to.", &whoamiCommand{app: a}},
		{"reset", "Drop the users table", "Roll back the schema, deleting every user.", &resetCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return err
		}
	}
	_, err = parser.ParseArgs(args)
	return err
}

func (a *app) open() (*sql.DB, *repository.UserRepository, error) {
	path := a.cfg.Database.Path
	if a.opts.DB != "" {
		path = a.opts.DB
	}
	d, err := db.Open(path)
	if err != nil {
		a.logger.Error("open store", zap.String("path", path), zap.Error(err))
		return nil, nil, err
	}
	return d, repository.NewUserRepository(d, a.logger), nil
}

type initCommand struct {
	app *app
}

func (c *initCommand) Execute([]string) error {
	d, _, err := c.app.open()
	if err != nil {
		return err
	}
	defer d.Close()
	c.app.logger.Info("store ready")
	return nil
}

type addCommand struct {
	app      *app
	Username string `short:"u" long:"username" description:"username" required:"true"`
	Email    string `short:"e" long:"email" description:"email address" required:"true"`
	Password string `short:"p" long:"password" description:"password" required:"true"`
}

func (c *addCommand) Execute([]string) error {
	d, users, err := c.app.open()
	if err != nil {
		return err
	}
	defer d.Close()
	created, err := users.Add(context.Background(), c.Username, c.Email, c.Password)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(c.app.out, "user %q already exists\n", c.Username)
		return nil
	}
	fmt.Fprintf(c.app.out, "user %q added\n", c.Username)
	return nil
}

type authCommand struct {
	app      *app
	Username string `short:"u" long:"username" description:"username" required:"true"`
	Password string `short:"p" long:"password" description:"password" required:"true"`
}

func (c *authCommand) Execute([]string) error {
	d, users, err := c.app.open()
	if err != nil {
		return err
	}
	defer d.Close()
	ok, err := users.Authenticate(context.Background(), c.Username, c.Password)
	if err != nil {
		return err
	}
	if !ok {
		c.app.logger.Info("authentication failed", zap.String("username", c.Username))
		return errInvalidCredentials
	}
	fmt.Fprintln(c.app.out, "authenticated")
	if secret := c.app.cfg.Token.Secret; secret != "" {
		tok, err := auth.IssueToken(c.Username, secret, c.app.cfg.Token.TTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(c.app.out, tok)
	}
	return nil
}

type listCommand struct {
	app           *app
	ShowPasswords bool `long:"passwords" description:"include the stored password column"`
}

func (c *listCommand) Execute([]string) error {
	d, users, err := c.app.open()
	if err != nil {
		return err
	}
	defer d.Close()
	list, err := users.List(context.Background())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.app.out, 0, 4, 2, ' ', 0)
	if c.ShowPasswords {
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tPASSWORD")
	} else {
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL")
	}
	for _, u := range list {
		if c.ShowPasswords {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Password)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.Email)
		}
	}
	return tw.Flush()
}

type whoamiCommand struct {
	app   *app
	Token string `short:"t" long:"token" description:"session token printed by auth" required:"true"`
}

func (c *whoamiCommand) Execute([]string) error {
	secret := c.app.cfg.Token.Secret
	if secret == "" {
		return errors.New("TOKEN_SECRET is not set")
	}
	p, err := auth.ParseToken(c.Token, secret)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	d, users, err := c.app.open()
	if err != nil {
		return err
	}
	defer d.Close()
	u, err := users.GetByUsername(context.Background(), p.Username)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %q no longer exists", p.Username)
	}
	fmt.Fprintf(c.app.out, "%s <%s> (token expires %s)\n", u.Username, u.Email, p.ExpiresAt.Format(time.RFC3339))
	return nil
}

type resetCommand struct {
	app *app
}

func (c *resetCommand) Execute([]string) error {
	d, _, err := c.app.open()
	if err != nil {
		return err
	}
	defer d.Close()
	if err := db.RollbackLast(d); err != nil {
		return err
	}
	c.app.logger.Warn("users table dropped")
	return nil
}
