// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"codeberg.org/tscat/tscat/config"
)

// state is the document written to limiter.stateFilepath.
type state struct {
	SavedAt time.Time     `json:"savedAt"`
	Buckets []savedBucket `json:"buckets"`
}

type savedBucket struct {
	Network    string    `json:"network"`
	LastAccess time.Time `json:"lastAccess"`
	Rate       float64   `json:"rate"`
	Burst      int       `json:"burst"`
	Tokens     float64   `json:"tokens"`
}

// Save writes every bucket held in memory to w.
func Save(w io.Writer) error {
	now := timeNow()
	doc := state{SavedAt: now, Buckets: []savedBucket{}}

	limiters.Range(func(_, value any) bool {
		lw, ok := value.(*limiterWrapper)
		if !ok {
			return true
		}

		lw.mu.Lock()
		doc.Buckets = append(doc.Buckets, savedBucket{
			Network:    lw.network,
			LastAccess: lw.lastAccess,
			Rate:       float64(lw.limiter.Limit()),
			Burst:      lw.limiter.Burst(),
			Tokens:     lw.limiter.TokensAt(now),
		})
		lw.mu.Unlock()

		return true
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode limiter state: %w", err)
	}

	log.Info().Int("count", len(doc.Buckets)).Msg("Saved limiter state")

	return nil
}

// InitFile replaces the buckets in memory with those saved in r.
//
// Buckets regain the tokens they would have earned since the state was
// saved. Buckets idle for longer than LimiterExpiryDuration are dropped. An
// empty input leaves memory untouched.
func InitFile(r io.Reader) error {
	var doc state

	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("failed to decode limiter state: %w", err)
	}

	limiters.Clear()

	now := timeNow()
	elapsed := max(now.Sub(doc.SavedAt), 0)
	restored := 0

	for _, b := range doc.Buckets {
		if b.Network == "" || now.Sub(b.LastAccess) > LimiterExpiryDuration {
			continue
		}

		lim := rate.NewLimiter(rate.Limit(b.Rate), b.Burst)

		tokens := min(b.Tokens+b.Rate*elapsed.Seconds(), float64(b.Burst))
		if spent := b.Burst - int(tokens); spent > 0 {
			lim.AllowN(now, spent)
		}

		limiters.Store(b.Network, &limiterWrapper{
			limiter:    lim,
			network:    b.Network,
			lastAccess: b.LastAccess,
		})

		restored++
	}

	log.Info().
		Int("restored", restored).
		Int("dropped", len(doc.Buckets)-restored).
		Msg("Loaded limiter state")

	return nil
}

// Init restores the state saved at limiter.stateFilepath. Any failure leaves
// the limiter with fresh buckets.
func Init() {
	path := config.Global.Limiter.StateFilepath

	file, err := os.Open(path) // #nosec:G304
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("file", path).Msg("No limiter state file, starting fresh")

		return
	} else if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Could not open limiter state file, starting fresh")

		return
	}
	defer file.Close()

	if err := InitFile(file); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Could not read limiter state file, starting fresh")
	}
}

// Fini saves the state to limiter.stateFilepath. The file is replaced
// atomically so a crash never leaves half a document behind.
func Fini() {
	path := config.Global.Limiter.StateFilepath

	if err := writeState(path); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to save limiter state")
	}
}

func writeState(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".limiter-state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp); err != nil {
		_ = tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
