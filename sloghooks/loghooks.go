// Package sloghooks reports softcache events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/softcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	WeakenEvery   uint64
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	weakenCtr   atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ softcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Weakened(key string) {
	if h.l == nil || !sample(h.opts.WeakenEvery, &h.weakenCtr) {
		return
	}
	h.l.Debug("softcache.weakened", "key", h.redact(key))
}

func (h *Hooks) Reclaimed(key string, spilled bool) {
	if h.l == nil {
		return
	}
	h.l.Debug("softcache.reclaimed",
		"key", h.redact(key),
		"spilled", spilled)
}

func (h *Hooks) Restrengthened(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("softcache.restrengthened", "key", h.redact(key))
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("softcache.self_heal",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) Recovered(key string) {
	if h.l == nil {
		return
	}
	h.l.Info("softcache.recovered", "key", h.redact(key))
}

func (h *Hooks) PutRetried(key string, attempt int, err error) {
	if h.l == nil {
		return
	}
	h.l.Info("softcache.put_retried",
		"key", h.redact(key),
		"attempt", attempt,
		"err", err)
}

func (h *Hooks) InsertFailed(key string, attempts int, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("softcache.insert_failed",
		"key", h.redact(key),
		"attempts", attempts,
		"err", err)
}

func (h *Hooks) SpillError(op, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("softcache.spill_error",
		"op", op,
		"key", h.redact(key),
		"err", err)
}
