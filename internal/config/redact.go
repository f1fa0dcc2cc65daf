package config

import (
	"net/url"
	"strconv"
)

const redacted = "****"

// Entry is a single setting as it would appear in an env file.
type Entry struct {
	Key   string
	Value string
}

// Redacted lists the settings in env file order with secrets masked and
// passwords stripped from connection URLs.
func (s *Settings) Redacted() []Entry {
	values := map[string]string{
		EnvAppVersion:        s.AppVersion,
		EnvAppHost:           s.AppHost,
		EnvAppPort:           strconv.Itoa(s.AppPort),
		EnvGeminiAPIKey:      s.GeminiAPIKey,
		EnvDatabaseType:      string(s.DatabaseType),
		EnvDatabaseURL:       redactURL(s.DatabaseURL),
		EnvSQLEcho:           strconv.FormatBool(s.SQLEcho),
		EnvPoolSize:          strconv.Itoa(s.PoolSize),
		EnvMaxOverflow:       strconv.Itoa(s.MaxOverflow),
		EnvPoolTimeout:       strconv.Itoa(int(s.PoolTimeout.Seconds())),
		EnvMongoURL:          redactURL(s.MongoURL),
		EnvMongoDatabase:     s.MongoDatabase,
		EnvMongoRootUsername: s.MongoRootUsername,
		EnvMongoRootPassword: s.MongoRootPassword,
	}

	entries := make([]Entry, 0, len(knownVars))
	for _, key := range knownVars {
		v := values[key]
		if secretVars[key] && v != "" {
			v = redacted
		}
		entries = append(entries, Entry{Key: key, Value: v})
	}
	return entries
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
