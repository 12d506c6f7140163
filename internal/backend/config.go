package backend

import (
	"fmt"
	"strings"

	"walletstats/internal/config"
)

// Types lists the supported backends, default first.
func Types() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// TypeNames is Types as strings, for help text and errors.
func TypeNames() []string {
	types := Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	c := Config{
		Type:           BackendType(appConfig.DataBackend),
		SQLiteDBPath:   appConfig.SQLiteDBPath,
		PostgresDSN:    appConfig.PostgresDSN,
		MemorySeedFile: appConfig.MemorySeedFile,
	}
	if !c.Type.IsValid() {
		return Config{}, unknownType(c.Type)
	}
	return c, nil
}

// Validate checks that the selected backend has what it needs to open.
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required for postgres backend")
		}
	case MemoryBackend:
	default:
		return unknownType(c.Type)
	}
	return nil
}

func unknownType(t BackendType) error {
	return fmt.Errorf("unknown backend %q (want one of %s)", t, strings.Join(TypeNames(), ", "))
}
