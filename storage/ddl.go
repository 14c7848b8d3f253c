package storage

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// Default schema scripts, used when no DDL path is configured.
var (
	//go:embed ddl/silver.sql
	DefaultSilverDDL string

	//go:embed ddl/gold.sql
	DefaultGoldDDL string
)

// LoadDDL reads the script at path, or returns fallback when path is empty.
func LoadDDL(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ddl: read %s: %w", path, err)
	}
	return string(b), nil
}

// SplitStatements splits a script on ";" and drops comment lines and empty
// statements. Semicolons inside string literals are not supported.
func SplitStatements(ddl string) []string {
	var stmts []string
	for _, part := range strings.Split(ddl, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
