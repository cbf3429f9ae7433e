package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/toolshop-apitest/authclient"
	"github.com/jrsteele09/toolshop-apitest/internal/config"
	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
	"github.com/jrsteele09/toolshop-apitest/token"
	"github.com/jrsteele09/toolshop-apitest/users"
	"github.com/urfave/cli/v2"
)

// clientConfig overlays the command line flags on the environment configuration.
type clientConfig struct {
	config.Client
	c *cli.Context
}

func (cc clientConfig) GetRequestTimeout() time.Duration {
	return cc.c.Duration(flagTimeout)
}

func (cc clientConfig) GetStrictServerErrors() bool {
	return cc.c.Bool(flagStrict)
}

// newManager builds a manager with an empty session for one command invocation.
func newManager(c *cli.Context) *token.Manager {
	cc := clientConfig{c: c}
	client := authclient.New(c.String(flagBaseURL), cc)
	return token.New(client, nil,
		token.WithSafetyMargin(cc.GetSafetyMargin()),
		token.WithStrictServerErrors(cc.GetStrictServerErrors()),
	)
}

// lazyManager seeds the session with the flag credentials so the first token request logs in.
func lazyManager(c *cli.Context) *token.Manager {
	m := newManager(c)
	m.Session().SetCredentials(credentials(c))
	return m
}

func credentials(c *cli.Context) oauthmodel.Credentials {
	return oauthmodel.Credentials{Email: c.String(flagEmail), Password: c.String(flagPassword)}
}

func loginCommand(_ config.Config) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "POST /users/login with the configured credentials",
		Action: func(c *cli.Context) error {
			m := newManager(c)
			resp, err := m.Login(c.Context, credentials(c))
			if err != nil {
				return err
			}
			return report(c, m, resp)
		},
	}
}

func refreshCommand(_ config.Config) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Log in, then GET /users/refresh with the new token",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "expire", Usage: "mark the token expired before refreshing"},
		},
		Action: func(c *cli.Context) error {
			m := newManager(c)
			if _, err := m.Login(c.Context, credentials(c)); err != nil {
				return err
			}
			if c.Bool("expire") {
				m.Session().SetExpiry(time.Now().Add(-time.Second))
			}
			resp, err := m.Refresh(c.Context)
			if err != nil {
				return err
			}
			return report(c, m, resp)
		},
	}
}

func ensureCommand(_ config.Config) *cli.Command {
	return &cli.Command{
		Name:  "ensure",
		Usage: "Obtain a token with at least the safety margin of validity left",
		Action: func(c *cli.Context) error {
			m := lazyManager(c)
			resp, err := m.EnsureFreshToken(c.Context)
			if err != nil {
				return err
			}
			return report(c, m, resp)
		},
	}
}

func meCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "me",
		Usage: "GET /users/me authenticated with a fresh token",
		Action: func(c *cli.Context) error {
			m := lazyManager(c)
			client := users.NewClient(c.String(flagBaseURL), m.TokenSource(c.Context), c.Duration(flagTimeout), cfg.GetDefaultHeaders())
			resp, err := client.Me(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "status: %d\n", resp.StatusCode)
			fmt.Fprintln(c.App.Writer, string(resp.Body))
			if resp.StatusCode != http.StatusOK {
				return cli.Exit("request not authorized", 1)
			}
			return nil
		},
	}
}

func report(c *cli.Context, m *token.Manager, resp *oauthmodel.Response) error {
	w := c.App.Writer
	fmt.Fprintf(w, "status: %d (%s)\n", resp.StatusCode, resp.Result.Kind)

	var pretty any
	if err := json.Unmarshal(resp.Body, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Fprintln(w, string(out))
	} else {
		fmt.Fprintln(w, string(resp.Body))
	}

	fmt.Fprintf(w, "state: %s\n", m.State())
	fmt.Fprintf(w, "expiry: %s\n", expiryString(m.Session().Expiry()))
	if creds, ok := m.Session().Credentials(); ok {
		fmt.Fprintf(w, "credentials: %s\n", creds)
	}
	if claims, err := token.Inspect(m.Session().AccessToken()); err == nil {
		fmt.Fprintf(w, "subject: %s (%s, %s)\n", claims.Subject, claims.Email, claims.Role)
	}

	if !resp.Result.IsSuccess() {
		return cli.Exit(fmt.Sprintf("auth server answered %d: %s", resp.StatusCode, resp.Result.Reason), 1)
	}
	return nil
}
