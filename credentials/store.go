package credentials

// Store resolves a username to its credential.
type Store interface {
	// Lookup returns the credential for username, and whether it exists.
	Lookup(username string) (Credential, bool)
}

// AccountsConfig holds configuration for loading accounts.
type AccountsConfig struct {
	Inline []string `mapstructure:"accounts"`      // account specs from config
	File   string   `mapstructure:"accounts_file"` // path to a file with one account per line
}

// NewStore creates a Store from the given configuration. Accounts are loaded
// from both inline config and file (if specified) and merged; file accounts
// take precedence over inline accounts for the same username.
func NewStore(cfg AccountsConfig) (Store, error) {
	creds := make(map[string]Credential)

	for _, spec := range cfg.Inline {
		c, err := ParseAccount(spec)
		if err != nil {
			return nil, err
		}
		creds[c.Username] = c
	}

	if cfg.File != "" {
		fileCreds, err := LoadAccountsFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for u, c := range fileCreds {
			creds[u] = c
		}
	}

	return NewMapStore(creds), nil
}
