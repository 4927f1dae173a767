package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/envgate/envgate/internal/app"
	"github.com/envgate/envgate/internal/auth"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "authenticate against the envgate service",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "password",
				Usage: "use the password grant instead of the device-code flow",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "account email for the password grant",
			},
		},
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	var record *auth.TokenRecord
	if cmd.Bool("password") {
		record, err = passwordLogin(ctx, application, cmd.String("email"))
	} else {
		record, err = deviceLogin(ctx, application)
	}
	if err != nil {
		return err
	}

	if record.UserEmail != "" {
		fmt.Printf("Logged in to %s as %s.\n", record.Environment, record.UserEmail)
	} else {
		fmt.Printf("Logged in to %s.\n", record.Environment)
	}

	application.WarnIfDegraded(ctx)
	return nil
}

// deviceLogin runs the device-code flow: show the code, then poll until the
// user approves out of band. Ctrl-C aborts the wait immediately via ctx.
func deviceLogin(ctx context.Context, application *app.App) (*auth.TokenRecord, error) {
	session, err := application.Auth.BeginDeviceGrant(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Open %s and enter the code %s\n", session.VerificationURI, session.UserCode)
	if session.VerificationURIComplete != "" {
		fmt.Printf("or visit %s\n", session.VerificationURIComplete)
	}
	fmt.Println("Waiting for approval...")

	return application.Auth.PollForToken(ctx, session)
}

// passwordLogin prompts for missing credentials and runs the password grant.
// The password is read with echo disabled.
func passwordLogin(ctx context.Context, application *app.App, email string) (*auth.TokenRecord, error) {
	if email == "" {
		fmt.Print("Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return nil, fmt.Errorf("email is required for the password grant")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return application.Auth.AuthenticateWithPassword(ctx, email, string(password))
}
