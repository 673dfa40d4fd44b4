package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Config selects and configures a backend.
type Config struct {
	Backend string // memory, file, redis, firestore, postgres

	DataDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GCPProjectID      string
	FirestoreDatabase string
	CredentialsFile   string

	DatabaseURL string
}

// Open constructs the backend named by cfg.Backend. An empty backend
// selects the in-memory store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		log.Info().Msg("using in-memory store")
		return NewMemoryStore(), nil
	case "file":
		dir := cfg.DataDir
		if dir == "" {
			dir = "./data"
		}
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", dir).Msg("using file store")
		return fs, nil
	case "redis":
		rs, err := NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis store")
		return rs, nil
	case "firestore":
		if cfg.GCPProjectID == "" {
			return nil, fmt.Errorf("firestore backend requires GCP_PROJECT_ID")
		}
		fs, err := NewFirestoreStore(ctx, cfg.GCPProjectID, cfg.FirestoreDatabase, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("project", cfg.GCPProjectID).Str("database", cfg.FirestoreDatabase).Msg("using firestore store")
		return fs, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		ps, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("using postgres store")
		return ps, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
