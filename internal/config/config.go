// Package config loads the application settings shared by the server and
// the setup tooling. Values come from an env file, with variables already
// present in the process environment taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseType selects the data layer backend.
type DatabaseType string

const (
	DatabaseSQL   DatabaseType = "sql"
	DatabaseMongo DatabaseType = "mongodb"

	// DatabaseSQLAlchemy is the older name for DatabaseSQL, still found in
	// env files written for the boilerplate this scaffold grew out of.
	DatabaseSQLAlchemy DatabaseType = "sqlalchemy"
)

// Relational reports whether t selects the relational backend.
func (t DatabaseType) Relational() bool {
	return t == DatabaseSQL || t == DatabaseSQLAlchemy
}

// Environment variable names.
const (
	EnvAppVersion        = "APP_VERSION"
	EnvAppHost           = "APP_HOST"
	EnvAppPort           = "APP_PORT"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvDatabaseType      = "DATABASE_TYPE"
	EnvDatabaseURL       = "DATABASE_URL"
	EnvSQLEcho           = "SQL_ECHO"
	EnvPoolSize          = "DATABASE_POOL_SIZE"
	EnvMaxOverflow       = "DATABASE_MAX_OVERFLOW"
	EnvPoolTimeout       = "DATABASE_POOL_TIMEOUT"
	EnvMongoURL          = "MONGODB_URL"
	EnvMongoDatabase     = "MONGODB_DATABASE_NAME"
	EnvMongoRootUsername = "MONGO_INITDB_ROOT_USERNAME"
	EnvMongoRootPassword = "MONGO_INITDB_ROOT_PASSWORD"
)

var knownVars = []string{
	EnvAppVersion, EnvAppHost, EnvAppPort, EnvGeminiAPIKey,
	EnvDatabaseType, EnvDatabaseURL, EnvSQLEcho,
	EnvPoolSize, EnvMaxOverflow, EnvPoolTimeout,
	EnvMongoURL, EnvMongoDatabase, EnvMongoRootUsername, EnvMongoRootPassword,
}

var secretVars = map[string]bool{
	EnvGeminiAPIKey:      true,
	EnvMongoRootPassword: true,
}

var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the application configuration.
type Settings struct {
	AppVersion   string
	AppHost      string
	AppPort      int
	GeminiAPIKey string

	DatabaseType DatabaseType

	// Relational backend
	DatabaseURL string
	SQLEcho     bool
	PoolSize    int
	MaxOverflow int
	PoolTimeout time.Duration

	// Document backend
	MongoURL          string
	MongoDatabase     string
	MongoRootUsername string
	MongoRootPassword string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() *Settings {
	return &Settings{
		AppHost:       "0.0.0.0",
		AppPort:       8000,
		DatabaseType:  DatabaseSQL,
		DatabaseURL:   "sqlite://data/app.db",
		PoolSize:      5,
		MaxOverflow:   10,
		PoolTimeout:   30 * time.Second,
		MongoURL:      "mongodb://localhost:27017",
		MongoDatabase: "app_db",
	}
}

// ReadFile parses an env file without touching the process environment.
func ReadFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, nil
}

// Load reads settings from the env file at path, which may be absent, and
// overlays any known variable set in the process environment.
func Load(path string) (*Settings, error) {
	vars := map[string]string{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileVars, err := ReadFile(path)
			if err != nil {
				return nil, err
			}
			vars = fileVars
		}
	}

	for _, key := range knownVars {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	return FromMap(vars)
}

// FromMap builds settings from variables, applying defaults for anything
// unset. Every malformed value is reported.
func FromMap(vars map[string]string) (*Settings, error) {
	s := Defaults()
	p := parser{vars: vars}

	p.stringVar(EnvAppVersion, &s.AppVersion)
	p.stringVar(EnvAppHost, &s.AppHost)
	p.intVar(EnvAppPort, &s.AppPort)
	p.stringVar(EnvGeminiAPIKey, &s.GeminiAPIKey)

	var dbType string
	if p.stringVar(EnvDatabaseType, &dbType) {
		s.DatabaseType = DatabaseType(strings.ToLower(strings.TrimSpace(dbType)))
		if s.DatabaseType == DatabaseSQLAlchemy {
			s.DatabaseType = DatabaseSQL
		}
	}

	p.stringVar(EnvDatabaseURL, &s.DatabaseURL)
	p.boolVar(EnvSQLEcho, &s.SQLEcho)
	p.intVar(EnvPoolSize, &s.PoolSize)
	p.intVar(EnvMaxOverflow, &s.MaxOverflow)

	var timeoutSeconds int
	if p.intVar(EnvPoolTimeout, &timeoutSeconds) {
		s.PoolTimeout = time.Duration(timeoutSeconds) * time.Second
	}

	p.stringVar(EnvMongoURL, &s.MongoURL)
	p.stringVar(EnvMongoDatabase, &s.MongoDatabase)
	p.stringVar(EnvMongoRootUsername, &s.MongoRootUsername)
	p.stringVar(EnvMongoRootPassword, &s.MongoRootPassword)

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(p.errs...))
	}
	return s, nil
}

// Validate checks the settings are usable for the selected backend.
func (s *Settings) Validate() error {
	var errs []error

	switch s.DatabaseType {
	case DatabaseSQL, DatabaseSQLAlchemy:
		if s.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", EnvDatabaseURL, EnvDatabaseType, DatabaseSQL))
		}
	case DatabaseMongo:
		if s.MongoURL == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", EnvMongoURL, EnvDatabaseType, DatabaseMongo))
		}
		if s.MongoDatabase == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", EnvMongoDatabase, EnvDatabaseType, DatabaseMongo))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", EnvDatabaseType, DatabaseSQL, DatabaseMongo, s.DatabaseType))
	}

	if s.AppPort < 1 || s.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("%s must be between 1 and 65535, got %d", EnvAppPort, s.AppPort))
	}
	if s.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvPoolSize, s.PoolSize))
	}
	if s.MaxOverflow < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", EnvMaxOverflow, s.MaxOverflow))
	}
	if s.PoolTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", EnvPoolTimeout, s.PoolTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// MaxConns is the connection ceiling: the pool size plus its overflow.
func (s *Settings) MaxConns() int {
	return s.PoolSize + s.MaxOverflow
}

// ListenAddr is the server listen address.
func (s *Settings) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.AppHost, s.AppPort)
}

type parser struct {
	vars map[string]string
	errs []error
}

// stringVar copies a set variable into dst and reports whether it was set.
func (p *parser) stringVar(key string, dst *string) bool {
	v, ok := p.vars[key]
	if !ok || v == "" {
		return false
	}
	*dst = v
	return true
}

func (p *parser) intVar(key string, dst *int) bool {
	v, ok := p.vars[key]
	if !ok || v == "" {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return false
	}
	*dst = n
	return true
}

func (p *parser) boolVar(key string, dst *bool) bool {
	v, ok := p.vars[key]
	if !ok || v == "" {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return false
	}
	*dst = b
	return true
}
