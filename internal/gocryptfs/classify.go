package gocryptfs

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Domain classifications for external tool failures.
var (
	// ErrAuthRejected means the tool rejected the passphrase.
	ErrAuthRejected = errors.New("passphrase rejected")
	// ErrPathInvalid means a container or mount point path was refused.
	ErrPathInvalid = errors.New("invalid path")
	// ErrVolumeBusy means an unmount target is still in use.
	ErrVolumeBusy = errors.New("volume busy")
)

// ProcessError is the fallback classification for a failed invocation
// whose output matched no known rule.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("process failed with exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("process failed with exit code %d: %s", e.ExitCode, msg)
}

// rule maps an exit code and/or stderr pattern to a domain error. A
// negative exit code matches any exit code; a nil pattern matches any
// output. Rules are checked in order, first match wins.
type rule struct {
	exitCode int
	pattern  *regexp.Regexp
	err      error
}

// ruleTable is a versioned set of classification rules. Output sniffing
// is fragile across tool releases, so the matched tool version is
// recorded alongside the rules; unmatched output falls through to
// ProcessError rather than guessing.
type ruleTable struct {
	toolVersion string
	rules       []rule
}

func (t *ruleTable) classify(exitCode int, stderr []byte) error {
	for _, r := range t.rules {
		if r.exitCode >= 0 && r.exitCode != exitCode {
			continue
		}
		if r.pattern != nil && !r.pattern.Match(stderr) {
			continue
		}
		return r.err
	}
	return &ProcessError{ExitCode: exitCode, Stderr: string(stderr)}
}

// Exit codes documented by gocryptfs (internal/exitcodes) as of v2.x.
const (
	exitMountPoint    = 10 // mount point invalid or not empty
	exitPasswordWrong = 12
	exitCipherDir     = 22 // cipherdir invalid or not empty on -init
	exitPasswordEmpty = 23
	exitOpenConf      = 24 // gocryptfs.conf missing or unreadable
)

// mountTable classifies gocryptfs mount failures.
var mountTable = ruleTable{
	toolVersion: "gocryptfs 2.x",
	rules: []rule{
		{exitCode: exitPasswordWrong, err: ErrAuthRejected},
		{exitCode: exitPasswordEmpty, err: ErrAuthRejected},
		{exitCode: -1, pattern: regexp.MustCompile(`(?i)password incorrect`), err: ErrAuthRejected},
		{exitCode: exitMountPoint, err: ErrPathInvalid},
		{exitCode: exitOpenConf, err: ErrPathInvalid},
		{exitCode: -1, pattern: regexp.MustCompile(`(?i)(not empty|does not exist|no such file or directory)`), err: ErrPathInvalid},
	},
}

// initTable classifies gocryptfs -init failures.
var initTable = ruleTable{
	toolVersion: "gocryptfs 2.x",
	rules: []rule{
		{exitCode: exitPasswordWrong, err: ErrAuthRejected},
		{exitCode: exitPasswordEmpty, err: ErrAuthRejected},
		{exitCode: -1, pattern: regexp.MustCompile(`(?i)passwords do not match`), err: ErrAuthRejected},
		{exitCode: exitCipherDir, err: ErrPathInvalid},
		{exitCode: -1, pattern: regexp.MustCompile(`(?i)(not empty|does not exist|no such file or directory)`), err: ErrPathInvalid},
	},
}

// unmountTable classifies fusermount/umount failures.
var unmountTable = ruleTable{
	toolVersion: "fusermount 3.x / util-linux 2.x",
	rules: []rule{
		{exitCode: -1, pattern: regexp.MustCompile(`(?i)(device or resource busy|target is busy)`), err: ErrVolumeBusy},
		{exitCode: -1, pattern: regexp.MustCompile(`(?i)(not mounted|not found in /etc/mtab|no mount point specified)`), err: ErrPathInvalid},
	},
}

// ClassifyMount maps a failed mount invocation to a domain error.
func ClassifyMount(exitCode int, stderr []byte) error {
	return mountTable.classify(exitCode, stderr)
}

// ClassifyInit maps a failed init invocation to a domain error.
func ClassifyInit(exitCode int, stderr []byte) error {
	return initTable.classify(exitCode, stderr)
}

// ClassifyUnmount maps a failed unmount attempt to a domain error.
func ClassifyUnmount(exitCode int, stderr []byte) error {
	return unmountTable.classify(exitCode, stderr)
}
