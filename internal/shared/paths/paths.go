package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Descriptor file names, in lookup order.
const (
	DescriptorJSON = "game.json"
	DescriptorYAML = "game.yaml"
)

// Content page naming.
const (
	PagePrefix  = "AllCards"
	PageExt     = ".json"
	PagePattern = PagePrefix + "*" + PageExt
)

// StagingPrefix marks temporary download directories inside the games root.
const StagingPrefix = ".staging-"

// Descriptors lists descriptor file names in lookup order.
func Descriptors() []string {
	return []string{DescriptorJSON, DescriptorYAML}
}

// Package returns the directory of the package with the given identifier.
func Package(root, id string) string {
	return filepath.Join(root, id)
}

// Page returns the path of content page n inside a package directory.
func Page(dir string, n int) string {
	return filepath.Join(dir, PagePrefix+strconv.Itoa(n)+PageExt)
}

// PageIndex parses the page number out of a page file name.
func PageIndex(name string) (int, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, PagePrefix) || !strings.HasSuffix(base, PageExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(base, PagePrefix), PageExt)
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || strconv.Itoa(n) != digits {
		return 0, false
	}
	return n, true
}

// IsHidden reports whether a directory entry is skipped by discovery.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Expand resolves a leading ~ and returns an absolute path.
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
