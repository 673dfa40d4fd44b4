package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/config"
	"scorekeeper-backend/internal/scorekeeper"
	"scorekeeper-backend/internal/store"
)

func main() {
	from := flag.String("from", "file", "source backend (memory, file, redis, firestore, postgres)")
	to := flag.String("to", "firestore", "destination backend")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	if *from == *to {
		log.Fatal().Str("backend", *from).Msg("source and destination are the same backend")
	}

	ctx := context.Background()

	srcCfg := cfg.Store
	srcCfg.Backend = *from
	src, err := store.Open(ctx, srcCfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", *from).Msg("failed to open source store")
	}
	defer src.Close()

	dstCfg := cfg.Store
	dstCfg.Backend = *to
	dst, err := store.Open(ctx, dstCfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", *to).Msg("failed to open destination store")
	}
	defer dst.Close()

	fmt.Printf("Migrating %s -> %s\n\n", *from, *to)
	n, err := migrate(ctx, src, dst, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	fmt.Printf("\nDone. Migrated %d key(s).\n", n)
}

// migrate copies every key from src to dst. Match history is decoded and
// re-encoded so legacy records arrive in the current layout; everything
// else is copied byte for byte.
func migrate(ctx context.Context, src, dst store.Store, out io.Writer) (int, error) {
	keys, err := src.Keys(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("listing source keys: %w", err)
	}

	copied := 0
	for _, key := range keys {
		if key == scorekeeper.RecentMatchesKey {
			records, err := scorekeeper.NewHistory(src, 0).Recent(ctx)
			if err != nil {
				fmt.Fprintf(out, "  %s SKIP: %v\n", key, err)
				continue
			}
			if err := scorekeeper.NewHistory(dst, 0).Replace(ctx, records); err != nil {
				return copied, err
			}
			fmt.Fprintf(out, "  %s (%d matches) OK\n", key, len(records))
			copied++
			continue
		}

		data, err := src.Load(ctx, key)
		if err != nil {
			fmt.Fprintf(out, "  %s SKIP: %v\n", key, err)
			continue
		}
		if err := dst.Save(ctx, key, data); err != nil {
			return copied, fmt.Errorf("saving %s: %w", key, err)
		}
		fmt.Fprintf(out, "  %s OK\n", key)
		copied++
	}
	return copied, nil
}
