package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenPath_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := OpenPath(path)
	require.NoError(t, err)
	version, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].version, version)
	require.NoError(t, db.Close())

	// Reopening must not re-run migrations.
	db, err = OpenPath(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
}

func TestPasses(t *testing.T) {
	db := setupTestDB(t)

	first, err := db.StartPass(TriggerCLI, true)
	require.NoError(t, err)
	second, err := db.StartPass(TriggerWebhook, false)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, db.FinishPass(first, nil))
	require.NoError(t, db.FinishPass(second, errors.New("jellyfin unreachable")))
	assert.Error(t, db.FinishPass("nope", nil))

	passes, err := db.RecentPasses(10)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, second, passes[0].ID)
	assert.Equal(t, TriggerWebhook, passes[0].Trigger)
	assert.Equal(t, "jellyfin unreachable", passes[0].Error)
	assert.NotNil(t, passes[0].FinishedAt)
	assert.True(t, passes[1].DryRun)
}

func TestRecordAndQueryRenames(t *testing.T) {
	db := setupTestDB(t)
	pass, err := db.StartPass(TriggerSchedule, false)
	require.NoError(t, err)

	records := []RenameRecord{
		{PassID: pass, ItemID: "a", Kind: "series_folder", SourcePath: "/tv/a", TargetPath: "/tv/A", Outcome: "renamed"},
		{PassID: pass, ItemID: "b", Kind: "episode_file", Outcome: "failed_target_conflict", Error: "target name is occupied"},
		{PassID: pass, ItemID: "c", Kind: "season_folder", Outcome: "skipped_already_correct"},
		{PassID: pass, ItemID: "d", Kind: "movie_folder", Outcome: "verify_failed"},
		{PassID: "other", ItemID: "e", Kind: "movie_folder", Outcome: "renamed", DryRun: true},
	}
	for _, r := range records {
		_, err := db.RecordRename(r)
		require.NoError(t, err)
	}

	recent, err := db.RecentRenames(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "e", recent[0].ItemID)
	assert.True(t, recent[0].DryRun)
	assert.False(t, recent[0].CreatedAt.IsZero())

	failures, err := db.RecentFailures(10)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "d", failures[0].ItemID)
	assert.Equal(t, "target name is occupied", failures[1].Error)

	inPass, err := db.PassRenames(pass)
	require.NoError(t, err)
	assert.Len(t, inPass, 4)
	assert.Equal(t, "a", inPass[0].ItemID)

	counts, err := db.CountByOutcome(pass)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"renamed":                 1,
		"failed_target_conflict":  1,
		"skipped_already_correct": 1,
		"verify_failed":           1,
	}, counts)

	all, err := db.CountByOutcome("")
	require.NoError(t, err)
	assert.Equal(t, 2, all["renamed"])
}
