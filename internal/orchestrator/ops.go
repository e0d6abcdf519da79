package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mithril-vault/mithril/internal/credential"
	"github.com/mithril-vault/mithril/internal/gocryptfs"
	"github.com/mithril-vault/mithril/internal/log"
	"github.com/mithril-vault/mithril/internal/profile"
	"github.com/mithril-vault/mithril/internal/runner"
)

// doInitialize runs the external tool's init mode. The passphrase is
// written to stdin followed by exactly two newline terminators because
// init confirms the passphrase. The payload is wiped as soon as the
// process finishes.
func (o *Orchestrator) doInitialize(ctx context.Context, p profile.Profile, cred *credential.Secret) error {
	defer cred.Wipe()

	if err := o.validateInitTarget(p.CipherDir); err != nil {
		return err
	}

	argv := o.tool.InitArgs(p.CipherDir)
	payload := cred.Payload(gocryptfs.InitTerminators)
	defer credential.WipeBytes(payload)

	res, err := o.run.Run(ctx, argv, payload)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return gocryptfs.ClassifyInit(res.ExitCode, res.Stderr)
	}
	return nil
}

// doMount mounts the container. The mount point is validated here;
// the external tool is never relied on to reject a bad mount point.
// Stdin carries the passphrase plus exactly one newline terminator.
func (o *Orchestrator) doMount(ctx context.Context, p profile.Profile, cred *credential.Secret) error {
	defer cred.Wipe()

	if err := o.validateMountPoint(p.MountPoint); err != nil {
		return err
	}

	argv := o.tool.MountArgs(p.CipherDir, p.MountPoint, p.ExtraFlags)
	payload := cred.Payload(gocryptfs.MountTerminators)
	defer credential.WipeBytes(payload)

	res, err := o.run.Run(ctx, argv, payload)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return gocryptfs.ClassifyMount(res.ExitCode, res.Stderr)
	}
	return nil
}

// doUnmount tries the unmount strategies in order, stopping at the
// first success. A missing helper binary moves on to the next
// strategy. A busy target is retried once after a short backoff, then
// surfaced as a busy failure without trying weaker strategies.
func (o *Orchestrator) doUnmount(ctx context.Context, p profile.Profile) error {
	var lastErr error
	busyRetried := false

	strategies := gocryptfs.UnmountStrategies(p.MountPoint)
	for i := 0; i < len(strategies); i++ {
		argv := strategies[i]

		res, err := o.run.Run(ctx, argv, nil)
		if err != nil {
			if errors.Is(err, runner.ErrToolNotFound) {
				log.Debug("unmount helper not installed", "binary", argv[0])
				lastErr = err
				continue
			}
			return err
		}

		if res.ExitCode == 0 {
			return nil
		}

		classified := gocryptfs.ClassifyUnmount(res.ExitCode, res.Stderr)
		if errors.Is(classified, gocryptfs.ErrVolumeBusy) {
			if !busyRetried {
				busyRetried = true
				log.Debug("mount point busy, retrying once",
					"mount_point", p.MountPoint, "backoff", o.busyBackoff)
				select {
				case <-time.After(o.busyBackoff):
				case <-ctx.Done():
					return fmt.Errorf("%w: %s", runner.ErrProcessTimeout, argv[0])
				}
				i-- // retry the same strategy
				continue
			}
			// Still busy after the retry: weaker strategies will not
			// succeed against a held mount, stop here.
			return classified
		}

		log.Debug("unmount strategy failed",
			"binary", argv[0], "exit", res.ExitCode)
		lastErr = classified
	}

	return fmt.Errorf("%w: %v", ErrUnmountFailed, lastErr)
}

// validateInitTarget ensures no encrypted container exists at the
// path. A missing directory is created; an existing one must be empty.
func (o *Orchestrator) validateInitTarget(cipherDir string) error {
	info, err := os.Stat(cipherDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(cipherDir, 0o700); err != nil {
			return fmt.Errorf("%w: create container directory: %v", gocryptfs.ErrPathInvalid, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", gocryptfs.ErrPathInvalid, cipherDir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", gocryptfs.ErrPathInvalid, cipherDir)
	}

	entries, err := os.ReadDir(cipherDir)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", gocryptfs.ErrPathInvalid, cipherDir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s already contains data", gocryptfs.ErrPathInvalid, cipherDir)
	}
	return nil
}

// validateMountPoint requires an existing, empty directory.
func (o *Orchestrator) validateMountPoint(mountPoint string) error {
	info, err := os.Stat(mountPoint)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: mount point %s does not exist", gocryptfs.ErrPathInvalid, mountPoint)
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", gocryptfs.ErrPathInvalid, mountPoint, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: mount point %s is not a directory", gocryptfs.ErrPathInvalid, mountPoint)
	}

	entries, err := os.ReadDir(mountPoint)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", gocryptfs.ErrPathInvalid, mountPoint, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: mount point %s is not empty", gocryptfs.ErrPathInvalid, mountPoint)
	}
	return nil
}
