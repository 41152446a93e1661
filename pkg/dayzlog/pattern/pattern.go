// Package pattern provides custom line classification for DayZ server
// logs. It allows users to define their own event kinds via YAML
// configuration files with regular expression patterns.
package pattern

// File represents the structure of a YAML pattern file.
// Pattern files define log classification rules using regular expressions.
//
// Example YAML file:
//
//	version: 1
//	patterns:
//	  - id: player_killed
//	    kind: died
//	    regex: 'Player "(?P<name>[^"]+)".* killed by (?P<killer>.+)'
//	  - id: admin_login
//	    kind: admin_login
//	    regex: "'(?P<name>[^']+)' has logged in as admin"
type File struct {
	// Version is the pattern file format version. Currently only
	// version 1 is supported.
	Version int `yaml:"version"`

	// Patterns is the list of pattern definitions.
	Patterns []Pattern `yaml:"patterns"`
}

// Pattern represents a single log pattern definition.
//
// The regex may contain named capture groups (?P<name>...) which are
// extracted into the classified line's Data field. Two group names are
// special: "name" and "steam_id" also populate the player identity.
type Pattern struct {
	// ID is a unique identifier for this pattern within the file.
	ID string `yaml:"id"`

	// Kind is the event kind emitted when this pattern matches.
	// Built-in kinds (connected, disconnected, ...) and custom kinds
	// are both allowed.
	Kind string `yaml:"kind"`

	// Regex is the regular expression matched against log lines.
	Regex string `yaml:"regex"`
}
