package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/larder/internal/export"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// execute runs the CLI with args and returns the exit code and output.
func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(root, args, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeDB(t *testing.T, path string, stmts ...string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open(types.DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	return path
}

var usersDB = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, note TEXT)`,
	`INSERT INTO users VALUES (1, 'Ann', NULL)`,
	`INSERT INTO users VALUES (2, 'Bo', 'hi')`,
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(content), 0o644))
}

func TestExport_Args(t *testing.T) {
	dir := t.TempDir()
	src := writeDB(t, filepath.Join(dir, "app.db"), usersDB...)
	out := filepath.Join(dir, "out")

	code, stdout, stderr := execute(t, "export", "--config-dir", filepath.Join(dir, "cfg"),
		"--output-dir", out, src+"=app_export")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, stdout, "persisted")

	got, err := os.ReadFile(filepath.Join(out, "app_export.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[{"id":1,"name":"Ann","note":null},{"id":2,"name":"Bo","note":"hi"}]}`, string(got))
}

func TestExport_DefaultSources(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	writeDB(t, filepath.Join(dir, "resume_data.db"), usersDB...)

	code, stdout, stderr := execute(t, "export", "--config-dir", filepath.Join(dir, "cfg"))
	require.Equal(t, exitSuccess, code, stderr)

	assert.FileExists(t, filepath.Join(dir, "resume_data_export.json"))
	assert.NoFileExists(t, filepath.Join(dir, "feedback_export.json"))
	assert.Contains(t, stdout, "skipped")
	assert.Contains(t, stderr, "skipping source")
}

func TestExport_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := writeDB(t, filepath.Join(dir, "app.db"), usersDB...)
	cfgDir := filepath.Join(dir, "cfg")
	out := filepath.Join(dir, "exports")
	writeConfig(t, cfgDir, "format: yaml\noutput_dir: "+out+"\nsources:\n  - path: "+src+"\n    name: dump\n")

	code, _, stderr := execute(t, "export", "--config-dir", cfgDir)
	require.Equal(t, exitSuccess, code, stderr)
	assert.FileExists(t, filepath.Join(out, "dump.yaml"))
}

func TestExport_FlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	src := writeDB(t, filepath.Join(dir, "app.db"), usersDB...)
	cfgDir := filepath.Join(dir, "cfg")
	writeConfig(t, cfgDir, "format: yaml\n")

	code, _, stderr := execute(t, "export", "--config-dir", cfgDir, "-o", dir, "--format", "json", src)
	require.Equal(t, exitSuccess, code, stderr)
	assert.FileExists(t, filepath.Join(dir, "app.json"))
}

func TestExport_EnvOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	src := writeDB(t, filepath.Join(dir, "app.db"), usersDB...)
	cfgDir := filepath.Join(dir, "cfg")
	writeConfig(t, cfgDir, "format: json\n")
	t.Setenv("LARDER_FORMAT", "yaml")

	code, _, stderr := execute(t, "export", "--config-dir", cfgDir, "-o", dir, src)
	require.Equal(t, exitSuccess, code, stderr)
	assert.FileExists(t, filepath.Join(dir, "app.yaml"))
}

func TestExport_NoSources(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "cfg")
	writeConfig(t, cfgDir, "sources: []\n")

	code, _, stderr := execute(t, "export", "--config-dir", cfgDir, "-o", dir)
	assert.Equal(t, exitSuccess, code, stderr)
}

func TestExport_AllFailed(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.db")
	require.NoError(t, os.WriteFile(bad, []byte("plain text that is certainly not a database file"), 0o644))

	code, stdout, stderr := execute(t, "export", "--config-dir", filepath.Join(dir, "cfg"), "-o", dir, bad)
	assert.Equal(t, exitAllFailed, code)
	assert.Contains(t, stdout, "failed")
	assert.Contains(t, stderr, "all 1 sources failed")
}

func TestExport_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "cfg")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"--format", "xml"}},
		{"unknown blob policy", []string{"--blob-policy", "drop"}},
		{"unknown driver", []string{"--driver", "postgres"}},
		{"zero parallelism", []string{"--parallel", "0"}},
		{"indent too large", []string{"--indent", "99"}},
		{"watch with schedule", []string{"--watch", "--schedule", "@hourly"}},
		{"bad schedule", []string{"--schedule", "whenever"}},
		{"empty source path", []string{""}},
		{"unknown flag", []string{"--nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"export", "--config-dir", cfgDir, "-o", dir}, tt.args...)
			code, _, _ := execute(t, args...)
			assert.Equal(t, exitUserError, code)
		})
	}
}

func TestExport_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "cfg")
	writeConfig(t, cfgDir, "parallelism: [not, a, number\n")

	code, _, stderr := execute(t, "export", "--config-dir", cfgDir)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "read config")
}

func TestExport_LogFormatJSON(t *testing.T) {
	dir := t.TempDir()
	src := writeDB(t, filepath.Join(dir, "app.db"), usersDB...)

	code, _, stderr := execute(t, "export", "--config-dir", filepath.Join(dir, "cfg"),
		"--log-format", "json", "-o", dir, src)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, stderr, `"msg":"export started"`)
	assert.Contains(t, stderr, `"run_id":`)
}

func TestTables(t *testing.T) {
	dir := t.TempDir()
	src := writeDB(t, filepath.Join(dir, "app.db"), usersDB...)
	missing := filepath.Join(dir, "gone.db")

	code, stdout, stderr := execute(t, "tables", "--config-dir", filepath.Join(dir, "cfg"), src, missing)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, stdout, "SOURCE")
	assert.Regexp(t, `users\s+3\s+2`, stdout)
	assert.Contains(t, stdout, "source database not found")
}

func TestTables_JSON(t *testing.T) {
	dir := t.TempDir()
	src := writeDB(t, filepath.Join(dir, "app.db"), usersDB...)

	code, stdout, stderr := execute(t, "tables", "--config-dir", filepath.Join(dir, "cfg"), "--json", src)
	require.Equal(t, exitSuccess, code, stderr)

	var got []export.Inspection
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, src, got[0].Source.Path)
	assert.Equal(t, []export.TableInfo{{Name: "users", Columns: 3, Rows: 2}}, got[0].Tables)
	assert.Empty(t, got[0].Error)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "cfg")

	code, stdout, stderr := execute(t, "init", "--config-dir", cfgDir)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, stdout, "wrote")
	require.FileExists(t, filepath.Join(cfgDir, configFileExt))

	code, stdout, _ = execute(t, "init", "--config-dir", cfgDir)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout, "already exists")

	// The written file loads back to the defaults.
	v, err := newViper(cfgDir)
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	def := types.DefaultConfig()
	assert.Equal(t, def.Format, cfg.Format)
	assert.Equal(t, def.Indent, cfg.Indent)
	assert.Equal(t, def.Debounce, cfg.Debounce)
	assert.Equal(t, defaultSources, cfg.Sources)
	assert.Equal(t, cfgDir, filepath.Dir(v.ConfigFileUsed()))
}

func TestLoadConfig_Defaults(t *testing.T) {
	v, err := newViper(t.TempDir())
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, types.FormatJSON, cfg.Format)
	assert.Equal(t, types.BlobBase64, cfg.BlobPolicy)
	assert.Equal(t, types.DriverSQLite, cfg.Driver)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, defaultSources, cfg.Sources)
	assert.Empty(t, v.ConfigFileUsed())
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout, "larder "+Version)
	assert.Contains(t, stdout, modulePath)
}
