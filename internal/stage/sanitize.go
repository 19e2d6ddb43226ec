package stage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const fallbackName = "recording"

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".wav": true, ".ogg": true, ".flac": true,
}

// SanitizeFilename strips characters unsafe for local paths and storage
// names. Never returns an empty or dot-leading name.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '-' || c == '_' || c == '.' || c == ' ':
			b.WriteRune(c)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return fallbackName
	}
	return out
}

// EnsureAudioExt appends the default extension when the name has no known
// audio extension.
func EnsureAudioExt(name string) string {
	if audioExtensions[strings.ToLower(filepath.Ext(name))] {
		return name
	}
	return name + ".mp3"
}

// IsAudioFile reports whether the path carries a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// Fingerprint returns the sha256 content fingerprint of a file.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
