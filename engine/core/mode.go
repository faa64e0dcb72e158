package core

import (
	"fmt"
	"strings"
)

// ApplicationMode decides where resources come from: loose files for the
// editor modes, packed bundles for standalone builds.
type ApplicationMode int

const (
	ApplicationModeUnknown ApplicationMode = iota
	ApplicationModeEditor
	ApplicationModeEditorGame
	ApplicationModeStandalone
)

func (m ApplicationMode) String() string {
	switch m {
	case ApplicationModeEditor:
		return "editor"
	case ApplicationModeEditorGame:
		return "editor-game"
	case ApplicationModeStandalone:
		return "standalone"
	}
	return "unknown"
}

func (m ApplicationMode) IsEditor() bool {
	return m == ApplicationModeEditor || m == ApplicationModeEditorGame
}

// UnmarshalText lets the mode be read from TOML and environment variables.
func (m *ApplicationMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "editor":
		*m = ApplicationModeEditor
	case "editor-game", "editorgame":
		*m = ApplicationModeEditorGame
	case "standalone":
		*m = ApplicationModeStandalone
	default:
		return fmt.Errorf("unknown application mode %q", string(text))
	}
	return nil
}

func (m ApplicationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
