// Package policy gates command execution behind the --enable-commands
// allowlist. An empty allowlist permits everything; otherwise a command
// runs only on an exact, whitespace-normalized path match.
package policy

import (
	"strings"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
)

func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	for _, allowed := range allowlist {
		if normalize(allowed) == normPath {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
