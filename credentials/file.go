package credentials

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadAccountsFromFile loads accounts from a text file with one account
// specification per line, in the same forms ParseAccount accepts:
//
//	alice:hunter2
//	bob:sha256:2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b
//	# comment lines and blank lines are ignored
//
// Returns a map of username to credential.
func LoadAccountsFromFile(path string) (map[string]Credential, error) {
	f, err := os.Open(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	defer func() { _ = f.Close() }()

	creds := make(map[string]Credential)

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		spec := strings.TrimSpace(scanner.Text())
		if spec == "" || strings.HasPrefix(spec, "#") {
			continue
		}

		c, err := ParseAccount(spec)
		if err != nil {
			return nil, fmt.Errorf("parse accounts file: line %d: %w", line, err)
		}
		creds[c.Username] = c
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	return creds, nil
}
