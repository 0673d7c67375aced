package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appDir = "prdchat"

// DefaultConfigPath returns the user configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appDir, "config.json")
}

// DefaultDatabasePath returns the conversation database location. State
// data lives under XDG_STATE_HOME.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.StateHome, appDir, "conversations.db")
}

// DefaultLogPath returns the log file location.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appDir, "prdchat.log")
}

// DefaultAttachmentsPath returns the attachment staging directory.
func DefaultAttachmentsPath() string {
	return filepath.Join(xdg.DataHome, appDir, "attachments")
}
