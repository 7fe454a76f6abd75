package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".mailbot"

// Paths holds resolved filesystem paths for Mailbot data.
type Paths struct {
	Base        string // ~/.mailbot
	Config      string // ~/.mailbot/config.yaml
	Credentials string // ~/.mailbot/credentials.json
	Token       string // ~/.mailbot/token.json
	Data        string // ~/.mailbot/data
	Database    string // ~/.mailbot/data/mailbot.db
}

// ResolvePaths computes all standard paths from the home directory.
// If MAILBOT_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("MAILBOT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:        base,
		Config:      filepath.Join(base, "config.yaml"),
		Credentials: filepath.Join(base, "credentials.json"),
		Token:       filepath.Join(base, "token.json"),
		Data:        filepath.Join(base, "data"),
		Database:    filepath.Join(base, "data", "mailbot.db"),
	}, nil
}

// EnsureDirs creates the standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
