package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/envgate/envgate/internal/app"
	"github.com/envgate/envgate/internal/envfile"
	"github.com/envgate/envgate/internal/reconcile"
)

func secretsCommand() *cli.Command {
	return &cli.Command{
		Name:  "secrets",
		Usage: "inspect and reconcile the local env file against remote secrets",
		Commands: []*cli.Command{
			secretsDiffCommand(),
			secretsSyncCommand(),
			secretsPushCommand(),
		},
	}
}

func secretsDiffCommand() *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "show differences between the local env file and remote secrets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "diff format (inline|side-by-side|summary)",
				Value: string(reconcile.FormatInline),
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colorized output",
			},
		},
		Action: secretsDiffAction,
	}
}

func secretsSyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "merge remote secrets into the local env file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "apply without confirmation",
			},
		},
		Action: secretsSyncAction,
	}
}

func secretsPushCommand() *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "replace remote secrets with the local env file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "push without confirmation",
			},
		},
		Action: secretsPushAction,
	}
}

func secretsPushAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	cfg := application.Config()
	if cfg.Project == "" {
		return fmt.Errorf("project is required (set --project or the project config key)")
	}

	local, err := envfile.Read(cfg.EnvFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.EnvFile, err)
	}

	// Local-only entries stay local: they never leave the machine.
	outbound := make(map[string]string, len(local))
	for key, value := range local {
		if reconcile.IsLocalKey(key) {
			continue
		}
		outbound[key] = value
	}

	if !cmd.Bool("yes") && !confirm(fmt.Sprintf("Replace remote %s secrets with %d entries from %s?", cfg.Environment, len(outbound), cfg.EnvFile)) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := application.API.PushSecrets(ctx, cfg.Project, cfg.Environment, outbound); err != nil {
		return fmt.Errorf("pushing secrets: %w", err)
	}
	fmt.Printf("Pushed %d secrets to %s/%s.\n", len(outbound), cfg.Project, cfg.Environment)
	return nil
}

func secretsDiffAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	local, remote, err := fetchSecretSets(ctx, application)
	if err != nil {
		return err
	}

	diff := reconcile.Compare(local, remote)
	rendered := reconcile.Render(diff, reconcile.Options{
		Format:   reconcile.Format(cmd.String("format")),
		Colorize: !cmd.Bool("no-color"),
	})
	if rendered == "" {
		fmt.Println("No changes.")
		return nil
	}
	fmt.Println(rendered)
	return nil
}

func secretsSyncAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	local, remote, err := fetchSecretSets(ctx, application)
	if err != nil {
		return err
	}

	diff := reconcile.Compare(local, remote)
	rendered := reconcile.Render(diff, reconcile.Options{Format: reconcile.FormatInline, Colorize: true})
	if rendered == "" {
		fmt.Println("Already up to date.")
		return nil
	}
	fmt.Println(rendered)

	if !cmd.Bool("yes") && !confirm("Apply these changes?") {
		fmt.Println("Aborted.")
		return nil
	}

	cfg := application.Config()
	merged := reconcile.Apply(diff, local)
	if err := envfile.Write(cfg.EnvFile, merged); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.EnvFile, err)
	}

	// Keep the secrets file out of version control.
	gitignore := filepath.Join(filepath.Dir(cfg.EnvFile), ".gitignore")
	if err := envfile.EnsureIgnored(gitignore, filepath.Base(cfg.EnvFile)); err != nil {
		return fmt.Errorf("updating %s: %w", gitignore, err)
	}

	fmt.Printf("Synced %s (%s).\n", cfg.EnvFile, reconcile.Render(diff, reconcile.Options{Format: reconcile.FormatSummary}))
	return nil
}

// fetchSecretSets reads the local env file and fetches the remote map
// concurrently.
func fetchSecretSets(ctx context.Context, application *app.App) (local, remote map[string]string, err error) {
	cfg := application.Config()
	if cfg.Project == "" {
		return nil, nil, fmt.Errorf("project is required (set --project or the project config key)")
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := envfile.Read(cfg.EnvFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", cfg.EnvFile, err)
		}
		local = values
		return nil
	})
	g.Go(func() error {
		values, err := application.API.Secrets(gCtx, cfg.Project, cfg.Environment)
		if err != nil {
			return fmt.Errorf("fetching remote secrets: %w", err)
		}
		remote = values
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return local, remote, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
