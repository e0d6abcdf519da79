package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/mithril-vault/mithril/internal/credential"
)

// promptPassphrase reads a passphrase without echoing it. When stdin is
// not a terminal (scripted use) a single line is read instead. With
// confirm set, the passphrase is read twice and must match.
func promptPassphrase(confirm bool) (*credential.Secret, error) {
	first, err := readSecret("Passphrase")
	if err != nil {
		return nil, err
	}

	if confirm {
		second, err := readSecret("Repeat passphrase")
		if err != nil {
			credential.WipeBytes(first)
			return nil, err
		}
		match := bytes.Equal(first, second)
		credential.WipeBytes(second)
		if !match {
			credential.WipeBytes(first)
			return nil, fmt.Errorf("passphrases do not match")
		}
	}

	return credential.New(first), nil
}

func readSecret(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())

	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		return secret, nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// promptConfirm asks a yes/no question on the terminal.
func promptConfirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch string(bytes.ToLower(bytes.TrimSpace([]byte(line)))) {
	case "y", "yes":
		return true
	}
	return false
}
