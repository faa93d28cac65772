package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/policyportal/internal/client/apiclient"
	"github.com/dmitrijs2005/policyportal/internal/client/config"
	"github.com/dmitrijs2005/policyportal/internal/client/tokenstore"
)

// API is the subset of the REST client the commands use.
type API interface {
	Health(ctx context.Context) error
	Register(ctx context.Context, in apiclient.RegisterRequest) (*apiclient.Session, error)
	Login(ctx context.Context, email, password string) (*apiclient.Session, error)
	Me(ctx context.Context, token string) (*apiclient.User, error)
	Logout(ctx context.Context, token string) error
	UpdatePassword(ctx context.Context, token, current, next string) error
	UpdateEmail(ctx context.Context, token, email string) (string, error)
	UpdateProfile(ctx context.Context, token string, in apiclient.ProfileRequest) (*apiclient.User, error)
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type App struct {
	config *config.Config
	api    API
	tokens TokenStore
	reader *bufio.Reader
	out    io.Writer

	token string
	email string
}

func NewApp(c *config.Config) (*App, error) {
	store, err := tokenstore.New(c.TokenFile)
	if err != nil {
		return nil, err
	}
	api := apiclient.New(c.ServerURL, c.RequestTimeout)
	return newApp(c, api, store, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, api API, tokens TokenStore, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, tokens: tokens, reader: bufio.NewReader(in), out: out}
}

// Run executes args[0] as a single command, or starts the REPL when args is
// empty.
func (a *App) Run(ctx context.Context, args []string) error {
	tok, err := a.tokens.Load()
	if err != nil {
		return err
	}
	a.token = tok

	if len(args) == 0 {
		fmt.Fprintln(a.out, "Policy portal CLI (type 'help' for commands)")
		if err := a.api.Health(ctx); err != nil {
			warn(a.out, "Server %s is not reachable: %v", a.config.ServerURL, err)
		}
		runREPL(ctx, a, a.status, a.reader)
		return nil
	}

	return a.Exec(ctx, args[0])
}

// Exec runs one named command.
func (a *App) Exec(ctx context.Context, cmd string) error {
	switch cmd {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "me":
		return a.Me(ctx)
	case "password":
		return a.Password(ctx)
	case "email":
		return a.Email(ctx)
	case "profile":
		return a.Profile(ctx)
	case "logout":
		return a.Logout(ctx)
	case "help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

const usage = "Available commands: register, login, me, password, email, profile, logout, help"

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "guest"
	}
	if a.email != "" {
		return a.email
	}
	return "signed in"
}
