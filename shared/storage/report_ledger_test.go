package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trend-finder/internal/models"
)

func TestReportLedger(t *testing.T) {
	dir := t.TempDir()
	ledger, err := NewReportLedger(dir, 24*time.Hour)
	require.NoError(t, err)

	videos := []models.Video{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assert.Equal(t, videos, ledger.Unreported(videos))

	require.NoError(t, ledger.MarkReported("chess", videos[:2]))
	assert.True(t, ledger.WasReported("a"))
	assert.False(t, ledger.WasReported("c"))
	assert.Equal(t, []models.Video{{ID: "c"}}, ledger.Unreported(videos))
	assert.Equal(t, 2, ledger.Count())

	reopened, err := NewReportLedger(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, reopened.WasReported("b"))
	assert.Equal(t, 2, reopened.Count())

	_, err = os.Stat(filepath.Join(dir, ledgerFile+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestReportLedgerExpiry(t *testing.T) {
	dir := t.TempDir()
	ledger, err := NewReportLedger(dir, time.Hour)
	require.NoError(t, err)

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return base }
	require.NoError(t, ledger.MarkReported("chess", []models.Video{{ID: "old"}}))

	ledger.now = func() time.Time { return base.Add(2 * time.Hour) }
	assert.False(t, ledger.WasReported("old"))

	ledger.prune()
	assert.Zero(t, ledger.Count())
}

func TestReportLedgerCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ledgerFile), []byte("{not json"), 0o644))

	_, err := NewReportLedger(dir, time.Hour)
	assert.ErrorContains(t, err, "failed to load report ledger")
}

func TestMarkReportedEmpty(t *testing.T) {
	dir := t.TempDir()
	ledger, err := NewReportLedger(dir, time.Hour)
	require.NoError(t, err)

	require.NoError(t, ledger.MarkReported("chess", nil))
	_, err = os.Stat(filepath.Join(dir, ledgerFile))
	assert.True(t, os.IsNotExist(err), "nothing to persist")
}
