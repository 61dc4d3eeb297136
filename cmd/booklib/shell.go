package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jrsteele09/book-library-client/credential"
	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/jrsteele09/book-library-client/session"
)

const prompt = "booklib> "

var errQuit = errors.New("quit")

// shellCommands is the grammar of one shell line
type shellCommands struct {
	Login  loginCmd  `cmd:"" help:"Log in to the book-library API."`
	Logout logoutCmd `cmd:"" help:"End the session."`
	Whoami whoamiCmd `cmd:"" help:"Show the logged in user."`
	Status statusCmd `cmd:"" help:"Show the session state."`
	Open   openCmd   `cmd:"" help:"Navigate to a page."`
	Where  whereCmd  `cmd:"" help:"Show the current page."`
	Quit   quitCmd   `cmd:"" aliases:"exit" help:"Leave the shell."`
}

type shellEnv struct {
	ctx context.Context
	out io.Writer
	app *app
}

type loginCmd struct {
	Username string `arg:"" help:"User name."`
	Password string `arg:"" help:"Password."`
}

func (c *loginCmd) Run(env *shellEnv) error {
	if _, err := env.app.sessions.Authenticate(env.ctx, session.Credentials{Username: c.Username, Password: c.Password}); err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
			fmt.Fprintln(env.out, "Log in refused: invalid user name or password")
			return nil
		}
		var decodeErr *credential.DecodeError
		if apperrors.As(err, &decodeErr) {
			fmt.Fprintf(env.out, "The API issued an unusable credential: %s\n", decodeErr.Reason)
			return nil
		}
		return err
	}

	state := env.app.sessions.State()
	fmt.Fprintf(env.out, "Logged in as %s until %s\n", state.Subject, state.ValidUntil.Local().Format(time.DateTime))
	env.app.router.Navigate(env.app.landing)
	return nil
}

type logoutCmd struct {
	Forget bool `help:"Also forget the remembered user name."`
}

func (c *logoutCmd) Run(env *shellEnv) error {
	env.app.sessions.Logout()
	if c.Forget {
		if err := env.app.sessions.ForgetProfile(); err != nil {
			return err
		}
	}
	fmt.Fprintln(env.out, "Logged out")
	return nil
}

type whoamiCmd struct {
	Remote bool `help:"Ask the API instead of reading the local credential."`
}

func (c *whoamiCmd) Run(env *shellEnv) error {
	if c.Remote {
		user, err := env.app.users.Me(env.ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "%s <%s> %s\n", user.Name, user.Email, strings.Join(user.Roles, ","))
		return nil
	}

	if !env.app.sessions.IsAuthenticated() {
		fmt.Fprintln(env.out, "Not logged in")
		return nil
	}
	subject, err := env.app.sessions.CurrentSubject()
	if err != nil {
		return err
	}
	fmt.Fprintln(env.out, subject)
	return nil
}

type statusCmd struct{}

func (c *statusCmd) Run(env *shellEnv) error {
	state := env.app.sessions.State()
	mon := env.app.sessions.Monitor()

	fmt.Fprintf(env.out, "authenticated: %t\n", state.Authenticated)
	if state.Subject != "" {
		fmt.Fprintf(env.out, "subject:       %s\n", state.Subject)
		fmt.Fprintf(env.out, "valid until:   %s\n", state.ValidUntil.Local().Format(time.DateTime))
	}
	fmt.Fprintf(env.out, "monitor:       armed=%t interval=%s beats=%d\n", state.MonitorArmed, mon.Interval(), mon.Heartbeat())
	if username, err := env.app.sessions.Username(); err == nil {
		fmt.Fprintf(env.out, "last user:     %s\n", username)
	}
	fmt.Fprintf(env.out, "page:          %s\n", env.app.router.Current())
	return nil
}

type openCmd struct {
	Path string `arg:"" help:"Page path, e.g. /search."`
}

func (c *openCmd) Run(env *shellEnv) error {
	env.app.router.Navigate(c.Path)
	return nil
}

type whereCmd struct{}

func (c *whereCmd) Run(env *shellEnv) error {
	fmt.Fprintln(env.out, env.app.router.Current())
	return nil
}

type quitCmd struct{}

func (c *quitCmd) Run(*shellEnv) error {
	return errQuit
}

// runShell reads commands from in until it is exhausted, quit is entered or ctx is done
func runShell(ctx context.Context, in io.Reader, out io.Writer, a *app) error {
	w := &syncWriter{w: out}
	a.setOnNavigate(func(path string) {
		fmt.Fprintf(w, "-> %s\n", path)
	})

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	env := &shellEnv{ctx: ctx, out: w, app: a}
	fmt.Fprint(w, prompt)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := execLine(env, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(w, "error: %v\n", err)
			}
			fmt.Fprint(w, prompt)
		}
	}
}

// exitRequest is raised by kong when it wants to exit, e.g. after printing help
type exitRequest int

func execLine(env *shellEnv, line string) (err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(exitRequest); !ok {
				panic(r)
			}
			err = nil
		}
	}()

	var cmds shellCommands
	parser, err := kong.New(&cmds,
		kong.Name("booklib"),
		kong.Writers(env.out, env.out),
		kong.Exit(func(code int) { panic(exitRequest(code)) }),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(env)
}

type syncWriter struct {
	w    io.Writer
	lock sync.Mutex
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.w.Write(p)
}
