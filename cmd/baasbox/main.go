// Command baasbox is a sample app for the client library: one subcommand per
// client operation, with the session kept in a state file between runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"baasbox-client/internal/client"
	"baasbox-client/internal/config"
	"baasbox-client/internal/model"
	"baasbox-client/internal/state"
	"baasbox-client/internal/telemetry"
)

const usage = `usage: baasbox <command> [flags]

commands:
  signup     -u user -p password   create an account and log in
  login      -u user -p password   log in
  logout                           end the current session
  suspend-me                       suspend the logged on account
  activate   -u user               activate an account (administrator)
  suspend    -u user               suspend an account (administrator)
  status                           show the current session
  reset                            forget the saved session without contacting the server

flags:
  -v   log requests to stderr

environment: BAASBOX_URL, BAASBOX_APPCODE, BAASBOX_TIMEOUT_SECONDS,
BAASBOX_STATE_FILE, BAASBOX_OTLP_ENDPOINT, BAASBOX_CONFIG (YAML file)
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], osEnv{}, os.Stdout, os.Stderr))
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func run(ctx context.Context, args []string, env config.Env, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd := args[0]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	verbose := fs.Bool("v", false, "log requests to stderr")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := config.LoadConfigFromEnv(env)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	tp, shutdown, err := telemetry.Setup(ctx, telemetry.Config{ServiceName: "baasbox-cli", Endpoint: cfg.OTLPEndpoint})
	if err != nil {
		fmt.Fprintln(stderr, "telemetry:", err)
		return 1
	}
	defer func() { _ = shutdown(context.Background()) }()

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(stderr, "", log.LstdFlags)
	}

	c, err := client.New(client.Options{
		BaseURL:        cfg.BaseURL,
		AppCode:        cfg.AppCode,
		Timeout:        cfg.Timeout,
		Logger:         logger,
		TracerProvider: tp,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if cmd == "reset" {
		if err := state.Clear(cfg.StateFile); err != nil {
			fmt.Fprintln(stderr, "state:", err)
			return 1
		}
		fmt.Fprintln(stdout, "Session cleared.")
		return 0
	}

	sess, err := state.Load(cfg.StateFile, c.BaseURL())
	if err != nil {
		fmt.Fprintln(stderr, "state:", err)
		return 1
	}

	if cmd == "status" {
		fmt.Fprintln(stdout, describe(sess))
		return 0
	}

	next, ok, label, known := dispatch(ctx, c, sess, cmd, *username, *password)
	if !known {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err := state.Save(cfg.StateFile, c.BaseURL(), next); err != nil {
		fmt.Fprintln(stderr, "state:", err)
		return 1
	}

	if !ok {
		fmt.Fprintf(stdout, "%s failed!\n", label)
		if next.LastError != nil {
			fmt.Fprintln(stdout, next.LastError.Message)
		}
		return 1
	}
	fmt.Fprintln(stdout, successText(cmd, *username))
	return 0
}

func dispatch(ctx context.Context, c *client.Client, s model.Session, cmd, username, password string) (model.Session, bool, string, bool) {
	switch cmd {
	case "signup":
		next, ok := c.SignUp(ctx, s, username, password)
		return next, ok, "SignUp", true
	case "login":
		next, ok := c.Login(ctx, s, username, password)
		return next, ok, "Login", true
	case "logout":
		next, ok := c.Logout(ctx, s)
		return next, ok, "Logout", true
	case "suspend-me":
		next, ok := c.SuspendMe(ctx, s)
		return next, ok, "Suspend", true
	case "activate":
		next, ok := c.ActivateUser(ctx, s, username)
		return next, ok, "ActivateUser", true
	case "suspend":
		next, ok := c.SuspendUser(ctx, s, username)
		return next, ok, "SuspendUser", true
	default:
		return s, false, "", false
	}
}

func successText(cmd, username string) string {
	switch cmd {
	case "signup":
		return "SignUp succeeded!"
	case "login":
		return "Logged in!"
	case "logout":
		return "Logged out!"
	case "suspend-me":
		return "Suspended myself!"
	case "activate":
		return fmt.Sprintf("ActivateUser %s succeeded!", username)
	case "suspend":
		return fmt.Sprintf("SuspendUser %s succeeded!", username)
	}
	return "done"
}

func describe(s model.Session) string {
	var b strings.Builder
	switch {
	case !s.Authenticated():
		b.WriteString("not logged in")
	case s.LoggedOnUser == nil:
		b.WriteString("logged in")
	default:
		u := s.LoggedOnUser.Data.User
		fmt.Fprintf(&b, "logged in as %s (%s)", u.Name, u.Status)
		if roles := s.LoggedOnUser.RoleNames(); len(roles) > 0 {
			fmt.Fprintf(&b, " roles: %s", strings.Join(roles, ", "))
		}
	}
	if s.LastError != nil {
		fmt.Fprintf(&b, "\nlast error: %s", s.LastError.Message)
	}
	return b.String()
}
