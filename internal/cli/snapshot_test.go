package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorabot/lorabot/internal/pet"
	"github.com/lorabot/lorabot/internal/store"
)

func writeSQLiteConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lorabot.yaml")
	body := fmt.Sprintf("store:\n  driver: sqlite\n  path: %s\n", dbPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestSnapshotCommand tests printing a persisted snapshot.
func TestSnapshotCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pet.db")
	s, err := store.OpenSQLite(dbPath, "")
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), &pet.Snapshot{
		State:        pet.Grateful,
		LastActivity: time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC),
		Friends: []pet.Friend{
			{ID: 0x4a3b, Encounters: 5, LastSeen: time.Date(2025, time.March, 12, 11, 0, 0, 0, time.UTC)},
		},
		Session: "run-42",
	}))
	require.NoError(t, s.Close())

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"snapshot", "--config", writeSQLiteConfig(t, dbPath)})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "state:         Grateful")
	assert.Contains(t, out.String(), "session:       run-42")
	assert.Contains(t, out.String(), "friends:       1")
	assert.Contains(t, out.String(), "0x4a3b")
}

// TestSnapshotCommand_Empty tests the message for a fresh store.
func TestSnapshotCommand_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pet.db")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"snapshot", "--config", writeSQLiteConfig(t, dbPath)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "no snapshot persisted")
}

// TestSnapshotCommand_DriverNone tests the refusal when nothing persists.
func TestSnapshotCommand_DriverNone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lorabot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: none\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"snapshot", "--config", path})

	assert.Error(t, cmd.Execute())
}
