// Package commands defines the envgate command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/envgate/envgate/internal/app"
	"github.com/envgate/envgate/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "envgate",
		Usage: "authenticate and reconcile local secrets against the envgate service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:    "environment",
				Aliases: []string{"e"},
				Usage:   "environment scope (development|staging|production)",
			},
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Usage:   "project to scope secrets to",
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "authorization service base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to the local env file",
				Value: app.DefaultConfigEnvFile,
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			statusCommand(),
			projectsCommand(),
			secretsCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads config, installs the log handler and assembles the app.
// The returned shutdown function flushes any buffered log exporter.
func setup(ctx context.Context, cmd *cli.Command) (*app.App, func(context.Context) error, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := observability.Instrument(ctx, observability.Options{
		Level:    cfg.LogLevel,
		Format:   string(cfg.LogFormat),
		Exporter: string(cfg.Telemetry.Exporter),
		Protocol: cfg.Telemetry.Protocol,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app: %w", err)
	}

	return application, shutdown, nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "delete the stored credential for the active environment",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			application, shutdown, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			existed, err := application.Auth.Logout(ctx)
			if err != nil {
				return err
			}
			if !existed {
				fmt.Printf("No session for %s.\n", application.Auth.Environment())
				return nil
			}
			fmt.Printf("Logged out of %s.\n", application.Auth.Environment())
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show authentication status for the active environment",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			application, shutdown, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			environment := application.Auth.Environment()
			if !application.Auth.IsAuthenticated(ctx) {
				fmt.Printf("%s: not authenticated (run `envgate login`)\n", environment)
				return nil
			}

			record, err := application.Auth.Current(ctx)
			if err != nil || record == nil {
				return err
			}
			fmt.Printf("%s: authenticated", environment)
			if record.UserEmail != "" {
				fmt.Printf(" as %s", record.UserEmail)
			}
			fmt.Printf(" (token valid until %s)\n", record.ExpiresAt.Local().Format("2006-01-02 15:04"))

			application.WarnIfDegraded(ctx)
			return nil
		},
	}
}

func projectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "list projects visible to the authenticated user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "environments",
				Usage: "also list each project's environments",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			application, shutdown, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			projects, err := application.API.Projects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects.")
				return nil
			}
			for _, project := range projects {
				if project.Description != "" {
					fmt.Printf("%s\t%s\t%s\n", project.ID, project.Name, project.Description)
				} else {
					fmt.Printf("%s\t%s\n", project.ID, project.Name)
				}
				if cmd.Bool("environments") {
					environments, err := application.API.Environments(ctx, project.ID)
					if err != nil {
						return err
					}
					for _, env := range environments {
						fmt.Printf("  %s\t%s\n", env.Slug, env.Name)
					}
				}
			}
			return nil
		},
	}
}
