package terminal

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/mithril-vault/mithril/internal/log"
	"github.com/mithril-vault/mithril/internal/osrelease"
)

// Detection is the result of probing the host for terminal support.
type Detection struct {
	// Available reports whether a rich provider was found
	Available bool
	// Provider is the detected emulator binary, empty when unavailable
	Provider string
	// Distro is the host distribution identifier
	Distro string
	// PackageManager is the detected package manager, empty when none
	PackageManager string
	// SuggestedPackages are the packages that would provide a terminal
	SuggestedPackages []string
	// InstallHint is the advisory install command, never executed
	InstallHint string
	// Notes carries non-fatal detection remarks
	Notes []string
	// Probed lists every candidate checked, in order
	Probed []string
}

// emulatorProbeOrder lists the embeddable terminal emulators in
// preference order; the first one found on PATH wins.
var emulatorProbeOrder = []string{"konsole", "qterminal", "xterm"}

// packageManagerProbeOrder lists known package managers; the first one
// found on PATH is used for the install hint.
var packageManagerProbeOrder = []string{"apt", "dnf", "yum", "zypper", "pacman", "apk", "brew", "emerge"}

// distroPackages maps distribution IDs to the packages that provide an
// embeddable terminal emulator.
var distroPackages = map[string][]string{
	"ubuntu":      {"konsole", "qterminal"},
	"debian":      {"konsole", "qterminal"},
	"linuxmint":   {"konsole", "qterminal"},
	"fedora":      {"konsole", "qterminal"},
	"rhel":        {"konsole", "qterminal"},
	"centos":      {"konsole", "qterminal"},
	"opensuse":    {"konsole", "qterminal"},
	"sles":        {"konsole", "qterminal"},
	"arch":        {"konsole", "qterminal"},
	"manjaro":     {"konsole", "qterminal"},
	"endeavouros": {"konsole", "qterminal"},
	"alpine":      {"qterminal"},
}

var defaultPackages = []string{"konsole", "qterminal"}

// lookPathFunc resolves a binary on PATH; swapped out in tests.
type lookPathFunc func(name string) (string, error)

// Detect probes the host once and returns the detection result.
func Detect() Detection {
	return detect(exec.LookPath, osrelease.Load())
}

func detect(lookPath lookPathFunc, hostInfo osrelease.Info) Detection {
	det := Detection{
		Distro: hostInfo.ID(),
	}

	for _, candidate := range emulatorProbeOrder {
		det.Probed = append(det.Probed, candidate)
		if _, err := lookPath(candidate); err == nil {
			det.Available = true
			det.Provider = candidate
			break
		}
	}

	det.PackageManager = detectPackageManager(lookPath)
	det.SuggestedPackages = suggestedPackages(det.Distro)

	if det.PackageManager != "" {
		det.InstallHint = fmt.Sprintf("sudo %s install %s",
			det.PackageManager, strings.Join(det.SuggestedPackages, " "))
	} else {
		det.Notes = append(det.Notes, "No supported package manager detected.")
	}

	log.Debug("terminal detection finished",
		"available", det.Available,
		"provider", det.Provider,
		"distro", det.Distro,
		"package_manager", det.PackageManager,
	)
	return det
}

func detectPackageManager(lookPath lookPathFunc) string {
	for _, candidate := range packageManagerProbeOrder {
		if _, err := lookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func suggestedPackages(distroID string) []string {
	if pkgs, ok := distroPackages[strings.ToLower(distroID)]; ok {
		return pkgs
	}
	return defaultPackages
}
