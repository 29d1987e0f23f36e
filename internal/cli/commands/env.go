package commands

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/cli/userconfig"
	"github.com/carepoint-rx/carepoint/internal/config"
	"github.com/carepoint-rx/carepoint/internal/gateway"
	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/logger"
	"github.com/carepoint-rx/carepoint/internal/notify"
	"github.com/carepoint-rx/carepoint/internal/services"
	"github.com/carepoint-rx/carepoint/internal/session"
)

// ErrLoginRequired is returned by guarded commands when the session does
// not satisfy the command's role requirement
var ErrLoginRequired = errors.New("not logged in with the required role")

// Env is everything a command needs at runtime
type Env struct {
	Config   *config.Config
	Store    *session.Store
	Service  *services.Service
	Prompter Prompter
	Out      io.Writer
	Err      io.Writer
	Logger   zerolog.Logger

	// Session is set for guarded commands once the guard authorizes them
	Session *session.Session

	navigator gateway.Navigator
}

// EnvLoader builds the Env for one command invocation
type EnvLoader func() (*Env, error)

// EnvOptions groups dependencies for NewEnv
type EnvOptions struct {
	Config   *config.Config
	Store    *session.Store
	Notifier notify.Notifier // defaults to a console notifier on Err
	Prompter Prompter
	Out      io.Writer
	Err      io.Writer
	Logger   zerolog.Logger
}

// NewEnv wires the API gateway and services around a session store
func NewEnv(opts EnvOptions) (*Env, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewConsole(opts.Err)
	}

	client, err := api.New(opts.Config.API.BaseURL, opts.Store,
		api.WithTimeout(opts.Config.API.Timeout),
		api.WithLogger(opts.Logger),
		api.WithUserAgent("carepoint-cli"),
	)
	if err != nil {
		return nil, err
	}

	nav := &hintNavigator{out: opts.Err}
	handler := gateway.NewHandler(gateway.HandlerOptions{
		Sessions:  opts.Store,
		Notifier:  opts.Notifier,
		Navigator: nav,
		Logger:    opts.Logger,
	})

	return &Env{
		Config:    opts.Config,
		Store:     opts.Store,
		Service:   services.New(gateway.New(client, handler), opts.Store, services.WithLogger(opts.Logger)),
		Prompter:  opts.Prompter,
		Out:       opts.Out,
		Err:       opts.Err,
		Logger:    opts.Logger,
		navigator: nav,
	}, nil
}

// LoadEnv is the production EnvLoader: configuration from the environment,
// the session in the OS keyring plus a cookie file under ~/.config/carepoint
func LoadEnv() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIURL) {
			return nil, fmt.Errorf("%w\nSet it in your environment or in a .env file", err)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// The CLI stays quiet unless asked otherwise
	level := cfg.Logging.Level
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger.InitWithWriter(os.Stderr, level, "console")
	log := logger.GetLogger()

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	cookiePath, err := userconfig.GetCookiePath()
	if err != nil {
		return nil, err
	}

	store := session.NewStore(
		session.NewLocalBackend(session.NewKeyringKV(u.Host)),
		session.NewCookieBackend(session.NewFileCookies(cookiePath)),
		session.WithLogger(log),
	)

	return NewEnv(EnvOptions{
		Config:   cfg,
		Store:    store,
		Prompter: TerminalPrompter{},
		Logger:   log,
	})
}

// routeCommands maps front-end routes to the command that shows them
var routeCommands = map[string]string{
	gateway.LoginRoute: "carepoint login",
	"/dashboard":       "carepoint whoami",
	"/admin":           "carepoint admin users ls",
}

// hintNavigator "navigates" by telling the user which command to run
type hintNavigator struct {
	out io.Writer
}

func (n *hintNavigator) Navigate(route string) {
	cmd, ok := routeCommands[route]
	if !ok {
		cmd = "carepoint " + route
	}
	fmt.Fprintf(n.out, "→ Run '%s' to continue.\n", cmd)
}

// runFunc is the body of a command that has its Env
type runFunc func(cmd *cobra.Command, args []string, env *Env) error

// withEnv loads the Env and runs fn
func withEnv(load EnvLoader, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := load()
		if err != nil {
			return err
		}
		return fn(cmd, args, env)
	}
}

// guarded is withEnv behind a role guard. A command whose guard resolves to
// redirecting prints the login hint and fails without calling the API.
func guarded(load EnvLoader, req guard.Requirement, fn runFunc) func(*cobra.Command, []string) error {
	return withEnv(load, func(cmd *cobra.Command, args []string, env *Env) error {
		g := guard.New(req, gateway.LoginRoute)
		if g.Check(cmd.Context(), env.Store) != guard.Authorized {
			env.navigator.Navigate(g.Redirect())
			if req == guard.RequireAny {
				return ErrLoginRequired
			}
			return fmt.Errorf("%w (%s)", ErrLoginRequired, req)
		}

		env.Session = g.Session()
		return fn(cmd, args, env)
	})
}
