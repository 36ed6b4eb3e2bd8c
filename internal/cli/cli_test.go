package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/store"
)

// testEnv writes a config pointing at a database in a temp dir.
func testEnv(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "chorechart.db")
	configPath = filepath.Join(dir, "chorechart.yaml")
	body := fmt.Sprintf("database:\n  path: %s\nscheduler:\n  timezone: UTC\nlog:\n  level: error\nseed: true\n", dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
	return configPath, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTasks(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMigrateSeedsOnce(t *testing.T) {
	cfg, dbPath := testEnv(t)

	out, err := execute(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	_, err = execute(t, "--config", cfg, "migrate")
	require.NoError(t, err)

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	users, err := store.NewUserStore(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, store.DefaultAdminNickname, users[0].Nickname)

	roles, err := store.NewRoleStore(db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles, 4)
}

func TestImportThenReset(t *testing.T) {
	cfg, _ := testEnv(t)
	tasks := writeTasks(t, `
tasks:
  - name: Feed the cat
    base_points: 5
    schedule_type: täglich
    default_due_time: "07:30"
  - name: Water plants
    base_points: 10
    schedule_type: weekly
    default_due_time: "18:00"
`)

	out, err := execute(t, "--config", cfg, "import", tasks)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 tasks")
	assert.Contains(t, out, "recurring")

	out, err = execute(t, "--config", cfg, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "created 2 task instances")

	out, err = execute(t, "--config", cfg, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "created 0 task instances")

	out, err = execute(t, "--config", cfg, "reset", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "created 0 task instances")
}

func TestImportPlainList(t *testing.T) {
	cfg, _ := testEnv(t)
	tasks := writeTasks(t, `
- name: Trash
  base_points: 5
  schedule_type: daily
  default_due_time: "20:00"
`)
	out, err := execute(t, "--config", cfg, "import", tasks)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 tasks")
}

func TestImportRejectsInvalidItem(t *testing.T) {
	cfg, _ := testEnv(t)
	tasks := writeTasks(t, `
- name: Fine
  base_points: 5
  schedule_type: daily
  default_due_time: "20:00"
- name: Broken
  base_points: 5
  schedule_type: monthly
  default_due_time: "20:00"
`)
	_, err := execute(t, "--config", cfg, "import", tasks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 2")
}

func TestImportMissingFile(t *testing.T) {
	cfg, _ := testEnv(t)
	_, err := execute(t, "--config", cfg, "import", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestBadConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chorechart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  timezone: Nowhere/Atlantis\n"), 0o600))

	_, err := execute(t, "--config", path, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown timezone")
}

func TestBackupAndDecrypt(t *testing.T) {
	cfg, _ := testEnv(t)
	t.Setenv("CHORECHART_BACKUP_PASSPHRASE", "correct horse")
	dir := t.TempDir()

	out, err := execute(t, "--config", cfg, "backup", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, ".db.enc")

	matches, err := filepath.Glob(filepath.Join(dir, "chorechart-*.db.enc"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	restored := filepath.Join(t.TempDir(), "restored.db")
	out, err = execute(t, "backup", "decrypt", matches[0], restored)
	require.NoError(t, err)
	assert.Contains(t, out, "decrypted")

	db, err := database.Open(restored)
	require.NoError(t, err)
	defer db.Close()
	users, err := store.NewUserStore(db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestBackupUploadNeedsS3(t *testing.T) {
	cfg, _ := testEnv(t)
	_, err := execute(t, "--config", cfg, "backup", "--dir", t.TempDir(), "--upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup.s3")
}
