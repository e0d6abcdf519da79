package gocryptfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitArgs(t *testing.T) {
	argv := Tool{}.InitArgs("/data/cipher")
	assert.Equal(t, []string{"gocryptfs", "-init", "/data/cipher", "-passfile", "-"}, argv)
}

func TestInitArgsCustomBinary(t *testing.T) {
	argv := Tool{Binary: "/opt/bin/gocryptfs"}.InitArgs("/data/cipher")
	assert.Equal(t, "/opt/bin/gocryptfs", argv[0])
}

func TestMountArgs(t *testing.T) {
	argv := Tool{}.MountArgs("/data/cipher", "/mnt/clear", nil)
	assert.Equal(t, []string{"gocryptfs", "/data/cipher", "/mnt/clear", "-passfile", "-"}, argv)
}

func TestMountArgsExtraFlagsAppendedVerbatim(t *testing.T) {
	// Flags stay separate elements even when they contain spaces; they
	// are never joined or re-split.
	argv := Tool{}.MountArgs("/c", "/m", []string{"-allow_other", "-o", "ro, nodev"})
	assert.Equal(t, []string{"gocryptfs", "/c", "/m", "-passfile", "-", "-allow_other", "-o", "ro, nodev"}, argv)
}

func TestUnmountStrategiesOrder(t *testing.T) {
	strategies := UnmountStrategies("/mnt/clear")
	assert.Equal(t, [][]string{
		{"fusermount3", "-u", "/mnt/clear"},
		{"fusermount", "-u", "/mnt/clear"},
		{"umount", "/mnt/clear"},
	}, strategies)
}
