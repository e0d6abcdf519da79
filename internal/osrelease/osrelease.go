// Package osrelease parses the host's os-release identification data.
// It is consulted only to phrase advisory install-hint text; nothing
// read here is ever executed.
package osrelease

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"
)

const defaultPath = "/etc/os-release"

// Info holds the parsed os-release key-value pairs, keys lowercased.
type Info map[string]string

// ID returns the distribution identifier, e.g. "ubuntu" or "fedora".
func (i Info) ID() string {
	return i["id"]
}

// Load reads /etc/os-release. When the file is missing, the returned
// Info still carries an "id" derived from the runtime OS.
func Load() Info {
	info := Info{}
	if f, err := os.Open(defaultPath); err == nil {
		defer f.Close()
		info = Parse(f)
	}
	if info["id"] == "" {
		info["id"] = runtime.GOOS
	}
	return info
}

// Parse reads os-release data from r.
func Parse(r io.Reader) Info {
	info := Info{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		info[strings.ToLower(strings.TrimSpace(key))] = value
	}
	return info
}
