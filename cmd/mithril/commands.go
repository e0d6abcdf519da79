package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/mithril-vault/mithril/internal/config"
	"github.com/mithril-vault/mithril/internal/gocryptfs"
	"github.com/mithril-vault/mithril/internal/log"
	"github.com/mithril-vault/mithril/internal/notify"
	"github.com/mithril-vault/mithril/internal/orchestrator"
	"github.com/mithril-vault/mithril/internal/profile"
	"github.com/mithril-vault/mithril/internal/runner"
	"github.com/mithril-vault/mithril/internal/securedelete"
	"github.com/mithril-vault/mithril/internal/terminal"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// app bundles the wired components behind each subcommand.
type app struct {
	cfg   *config.Config
	store *profile.FileStore
	orch  *orchestrator.Orchestrator
}

func buildApp(cmd *cli.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	// Fail up front with install guidance instead of on the first
	// operation.
	if _, err := exec.LookPath(cfg.Tool); err != nil {
		return nil, fmt.Errorf("%w: %s (install gocryptfs and make sure it is on PATH)",
			runner.ErrToolNotFound, cfg.Tool)
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notifications {
		if n, err := notify.NewDBusNotifier("mithril"); err == nil {
			notifier = n
		} else {
			log.Warn("desktop notifications unavailable", "error", err)
		}
	}

	orch := orchestrator.New(
		runner.NewExecRunner(),
		gocryptfs.Tool{Binary: cfg.Tool},
		orchestrator.WithTimeout(cfg.OperationTimeout()),
		orchestrator.WithNotifier(notifier),
	)

	return &app{
		cfg:   cfg,
		store: profile.NewFileStore(cfg.ProfilesPath),
		orch:  orch,
	}, nil
}

// resolveProfile finds a profile by ID first, then by label.
func (a *app) resolveProfile(ref string) (*profile.Profile, error) {
	if p, err := a.store.Get(ref); err == nil {
		return p, nil
	}

	profiles, err := a.store.List()
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].Label == ref {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", profile.ErrNotFound, ref)
}

// await blocks on the outcome channel and renders the result.
func await(ch <-chan orchestrator.Outcome) error {
	out := <-ch
	if out.Err != nil {
		failColor.Fprintf(os.Stderr, "%s failed (%s): %s\n", out.Op, out.State, out.Message)
		return out.Err
	}
	okColor.Printf("%s finished in %s\n", out.Op, out.Duration.Round(time.Millisecond))
	return nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a volume profile",
		ArgsUsage: "<label> <cipher-dir> <mount-point>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "flag",
				Usage: "Extra mount flag, repeatable; passed verbatim to the tool",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 3 {
				return fmt.Errorf("expected <label> <cipher-dir> <mount-point>")
			}

			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			// A relative mount point is placed under the configured
			// default mount location.
			mountPoint := cmd.Args().Get(2)
			if !filepath.IsAbs(mountPoint) && a.cfg.DefaultMountLocation != "" {
				mountPoint = filepath.Join(a.cfg.DefaultMountLocation, mountPoint)
			}

			p, err := a.store.Put(profile.Profile{
				Label:      cmd.Args().Get(0),
				CipherDir:  cmd.Args().Get(1),
				MountPoint: mountPoint,
				ExtraFlags: cmd.StringSlice("flag"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("added profile %s (%s)\n", p.Label, p.ID)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List volume profiles and their mount state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			profiles, err := a.store.List()
			if err != nil {
				return err
			}

			// The mount table, not persisted state, decides what is
			// mounted.
			if err := a.orch.Reconcile(profiles); err != nil {
				log.Warn("mount table probe failed", "error", err)
			}

			for _, p := range profiles {
				st := a.orch.Status(p.ID)
				marker := "  "
				if st.State == orchestrator.StateMounted {
					marker = okColor.Sprint("* ")
				}
				fmt.Printf("%s%s  %s  %s -> %s\n", marker, p.ID, p.Label, p.CipherDir, p.MountPoint)
			}
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a volume profile (keeps the container on disk)",
		ArgsUsage: "<profile>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			p, err := a.resolveProfile(cmd.Args().First())
			if err != nil {
				return err
			}
			return a.store.Remove(p.ID)
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Initialize a new encrypted container for a profile",
		ArgsUsage: "<profile>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			p, err := a.resolveProfile(cmd.Args().First())
			if err != nil {
				return err
			}

			cred, err := promptPassphrase(true)
			if err != nil {
				return err
			}

			ch, err := a.orch.Initialize(ctx, *p, cred)
			if err != nil {
				return err
			}
			return await(ch)
		},
	}
}

func mountCommand() *cli.Command {
	return &cli.Command{
		Name:      "mount",
		Usage:     "Mount a volume",
		ArgsUsage: "<profile>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			p, err := a.resolveProfile(cmd.Args().First())
			if err != nil {
				return err
			}

			cred, err := promptPassphrase(false)
			if err != nil {
				return err
			}

			ch, err := a.orch.Mount(ctx, *p, cred)
			if err != nil {
				return err
			}
			return await(ch)
		},
	}
}

func unmountCommand() *cli.Command {
	return &cli.Command{
		Name:      "unmount",
		Usage:     "Unmount a volume",
		ArgsUsage: "<profile>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			p, err := a.resolveProfile(cmd.Args().First())
			if err != nil {
				return err
			}

			// A fresh process has no session state; adopt whatever the
			// kernel says is mounted before checking legality.
			if err := a.orch.Reconcile([]profile.Profile{*p}); err != nil {
				log.Warn("mount table probe failed", "error", err)
			}

			ch, err := a.orch.Unmount(ctx, *p)
			if err != nil {
				return err
			}
			return await(ch)
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Recursively delete an encrypted container from disk",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the confirmation prompt",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}

			target := cmd.Args().First()
			guard, err := securedelete.NewGuard()
			if err != nil {
				return err
			}

			resolved, err := guard.Validate(target)
			if err != nil {
				return err
			}

			if !cmd.Bool("yes") && !promptConfirm(fmt.Sprintf("Permanently delete %s?", resolved)) {
				return fmt.Errorf("aborted")
			}

			if err := guard.Delete(target); err != nil {
				return err
			}
			okColor.Printf("deleted %s\n", resolved)
			return nil
		},
	}
}

func terminalCommand() *cli.Command {
	return &cli.Command{
		Name:  "terminal",
		Usage: "Show embedded-terminal support for this host",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			registry := terminal.NewRegistry(
				terminal.WithEnabledFunc(cfg.TerminalEnabled),
			)

			det := registry.Detection()
			if det.Available {
				okColor.Printf("terminal provider: %s\n", det.Provider)
			} else {
				failColor.Println("no terminal provider available")
			}

			// First run: ask once whether the embedded terminal should be
			// used, then remember the answer.
			if det.Available && cfg.ShouldPromptTerminalSetup() {
				enabled := promptConfirm(fmt.Sprintf("Enable the embedded terminal (%s)?", det.Provider))
				if err := cfg.SetTerminalEnabled(enabled); err != nil {
					return err
				}
				if err := cfg.MarkTerminalSetupDone(); err != nil {
					return err
				}
			}

			provider := registry.Reselect()
			if guidance := provider.Guidance(); guidance != "" {
				fmt.Print(guidance)
			}
			return nil
		},
	}
}
