// Package storage persists scanning metadata: sessions and the peaks
// detected during them. Full spectra are deliberately not stored; they are
// streamed to subscribers and can be exported to JSON for offline rendering.
package storage

import (
	"context"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

// DetectedPeak is one persisted peak observation.
type DetectedPeak struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Frequency float64   `json:"frequency"` // Peak frequency in Hz
	PowerDB   float64   `json:"powerDB"`   // Peak power in dB
}

// Store manages scan session and peak persistence. Write operations are
// atomic; a batch of peaks from one sweep is stored in a single transaction.
type Store interface {
	// CreateSession initializes a new scanning session and returns its unique
	// identifier. config can be a string, []byte, or any JSON-serializable
	// value; nil stores no configuration.
	CreateSession(ctx context.Context, mode, source string, config any) (sessionID int64, err error)

	// Session retrieves a scanning session by ID.
	Session(ctx context.Context, id int64) (*spectrum.ScanSession, error)

	// Sessions returns all scanning sessions ordered by start time.
	Sessions(ctx context.Context) ([]*spectrum.ScanSession, error)

	// StorePeaks saves the peaks detected in one sweep, stamped with the
	// sweep timestamp. An empty batch is a no-op.
	StorePeaks(ctx context.Context, sessionID int64, timestamp time.Time, peaks []spectrum.Peak) error

	// Peaks returns all peaks recorded for a session, ordered by timestamp
	// then descending power.
	Peaks(ctx context.Context, sessionID int64) ([]*DetectedPeak, error)

	// Close releases all database connections. The store cannot be reused
	// afterwards. Safe to call multiple times.
	Close() error
}
