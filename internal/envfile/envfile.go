// Package envfile reads and writes KEY=value secret files.
//
// Reading accepts the usual dotenv dialect: # comments, blank lines, optional
// double quoting. Writing emits sorted keys and quotes a value only when it
// contains a space, '#' or '=', so files stay diff-friendly and shell-pasteable.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Read parses the env file at path into a map. A missing file is not an
// error; it reads as an empty map so first-time sync works on clean checkouts.
func Read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	values, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return values, nil
}

// Write atomically replaces the env file at path with the given map, using
// temp file + rename for crash safety. File permissions are 0600: the file
// holds secrets.
func Write(path string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(quoteValue(values[key]))
		sb.WriteByte('\n')
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.WriteString(sb.String()); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final location
	if err := os.Rename(tempName, path); err != nil {
		return err
	}
	return os.Chmod(path, 0600)
}

// quoteValue double-quotes values that would break KEY=value parsing.
func quoteValue(value string) string {
	if strings.ContainsAny(value, " #=") || value == "" {
		escaped := strings.ReplaceAll(value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	}
	return value
}

// EnsureIgnored appends pattern to the .gitignore at gitignorePath when no
// line already matches it. Idempotent; creates the file if missing.
func EnsureIgnored(gitignorePath, pattern string) error {
	data, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == pattern {
			return nil
		}
	}

	var sb strings.Builder
	sb.Write(data)
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString(pattern)
	sb.WriteByte('\n')

	return os.WriteFile(gitignorePath, []byte(sb.String()), 0644)
}
