package validation

import (
	"strings"
	"testing"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Valid labels
		{"valid simple label", "myvault", false},
		{"valid with numbers", "vault123", false},
		{"valid with underscore", "my_vault", false},
		{"valid with dot", "my.vault", false},
		{"valid with hyphen", "my-vault", false},
		{"valid with spaces", "Work Vault v2", false},
		{"valid minimum length", "ab", false},
		{"valid maximum length", strings.Repeat("a", MaxLabelLength), false},
		{"valid starts with number", "1vault", false},

		// Invalid labels - length
		{"too short - 1 char", "a", true},
		{"too short - empty", "", true},
		{"too long", strings.Repeat("a", MaxLabelLength+1), true},

		// Invalid labels - bad characters
		{"starts with underscore", "_vault", true},
		{"starts with hyphen", "-vault", true},
		{"starts with space", " vault", true},
		{"contains slash", "my/vault", true},
		{"contains colon", "my:vault", true},
		{"contains semicolon", "vault;rm", true},
		{"contains special chars", "my$vault", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVolumePaths(t *testing.T) {
	tests := []struct {
		name       string
		cipherDir  string
		mountPoint string
		wantErr    bool
	}{
		{"disjoint paths", "/data/cipher", "/mnt/clear", false},
		{"sibling paths", "/data/cipher", "/data/clear", false},
		{"common name prefix but not nested", "/data/vault", "/data/vault-mount", false},

		{"empty cipher dir", "", "/mnt/clear", true},
		{"empty mount point", "/data/cipher", "", true},
		{"relative cipher dir", "data/cipher", "/mnt/clear", true},
		{"relative mount point", "/data/cipher", "mnt/clear", true},
		{"identical paths", "/data/vault", "/data/vault", true},
		{"identical after cleaning", "/data/vault/", "/data/vault", true},
		{"mount point inside container", "/data/vault", "/data/vault/mnt", true},
		{"container inside mount point", "/mnt/clear/cipher", "/mnt/clear", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVolumePaths(tt.cipherDir, tt.mountPoint)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVolumePaths(%q, %q) error = %v, wantErr %v",
					tt.cipherDir, tt.mountPoint, err, tt.wantErr)
			}
		})
	}
}
