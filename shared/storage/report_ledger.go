package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"trend-finder/internal/models"
)

const ledgerFile = "reported_videos.json"

// ReportLedger remembers which videos were already sent in a digest, so the
// next digest only carries new ones. Entries expire after the retention
// window and the ledger is persisted as JSON under the data directory.
type ReportLedger struct {
	filePath  string
	retention time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	reported map[string]ReportedVideo
}

// ReportedVideo is one ledger entry.
type ReportedVideo struct {
	VideoID    string    `json:"video_id"`
	Niche      string    `json:"niche"`
	ReportedAt time.Time `json:"reported_at"`
}

// NewReportLedger opens (or creates) the ledger in dataDir.
func NewReportLedger(dataDir string, retention time.Duration) (*ReportLedger, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	l := &ReportLedger{
		filePath:  filepath.Join(dataDir, ledgerFile),
		retention: retention,
		now:       time.Now,
		reported:  make(map[string]ReportedVideo),
	}
	if err := l.load(); err != nil {
		return nil, fmt.Errorf("failed to load report ledger: %w", err)
	}
	l.prune()

	return l, nil
}

// WasReported reports whether videoID went out in a digest within the
// retention window.
func (l *ReportLedger) WasReported(videoID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.reported[videoID]
	if !ok {
		return false
	}
	return l.now().Sub(entry.ReportedAt) < l.retention
}

// Unreported returns the videos that were not reported yet, in order.
func (l *ReportLedger) Unreported(videos []models.Video) []models.Video {
	out := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if !l.WasReported(v.ID) {
			out = append(out, v)
		}
	}
	return out
}

// MarkReported records videos as sent for niche and persists the ledger.
func (l *ReportLedger) MarkReported(niche string, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, v := range videos {
		l.reported[v.ID] = ReportedVideo{VideoID: v.ID, Niche: niche, ReportedAt: now}
	}
	return l.save()
}

// Count returns the number of entries currently held.
func (l *ReportLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.reported)
}

func (l *ReportLedger) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.retention)
	for id, entry := range l.reported {
		if entry.ReportedAt.Before(cutoff) {
			delete(l.reported, id)
		}
	}
}

func (l *ReportLedger) load() error {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read ledger file: %w", err)
	}

	var entries []ReportedVideo
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode ledger data: %w", err)
	}
	for _, e := range entries {
		l.reported[e.VideoID] = e
	}
	return nil
}

// save writes the ledger through a temp file so a crash never leaves it
// truncated. Callers hold the write lock.
func (l *ReportLedger) save() error {
	entries := make([]ReportedVideo, 0, len(l.reported))
	for _, e := range l.reported {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].VideoID < entries[j].VideoID })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tmp := l.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.filePath); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
