package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/guildtracker/internal/factory"
	"github.com/mcoot/guildtracker/internal/gameclient"
	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/services/world"
	"github.com/mcoot/guildtracker/internal/telemetry"
)

const rosterJSON = `[
  {
    "name": "Zora",
    "level": 500
  },
  {
    "name": "Aldric",
    "level": 312
  }
]
`

// emulator serves a small world and counts the requests it receives
type emulator struct {
	*httptest.Server
	requests atomic.Int64
}

func newEmulator(t *testing.T) *emulator {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	w, err := world.New(world.File{
		Accounts: []world.AccountFile{
			{
				Username:     "alice@example.com",
				PasswordHash: string(hash),
				Characters:   []world.CharacterFile{{Name: "Aldric", Server: "s1", Level: 312, Guild: "Night Watch"}},
			},
			{
				Username:     "loner@example.com",
				PasswordHash: string(hash),
				Characters:   []world.CharacterFile{{Name: "Loner", Server: "s1", Level: 9}},
			},
		},
		Guilds: []world.GuildFile{
			{Name: "Night Watch", Members: []world.MemberFile{{Name: "Zora", Level: 500}, {Name: "Aldric", Level: 312}}},
		},
	})
	require.NoError(t, err)

	stub := factory.NewTestStub(w)
	e := &emulator{}
	e.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		e.requests.Add(1)
		stub.Handler.ServeHTTP(rw, r)
	}))
	t.Cleanup(e.Close)
	return e
}

// isolateEnv clears every variable the CLI reads so the host environment
// and any .env in the working directory cannot leak into a test
func isolateEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{EnvUsername, EnvPassword, EnvServer, EnvStorage, EnvData, EnvRedisURL, EnvPostgresDSN, telemetry.EndpointEnv} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv(EnvEnvFile, filepath.Join(t.TempDir(), "absent.env"))
}

func setCredentials(t *testing.T, username string) {
	t.Helper()
	t.Setenv(EnvUsername, username)
	t.Setenv(EnvPassword, "hunter2")
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))

	err := run(context.Background(), root)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// fetch tests

func TestFetchPrintsRoster(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")

	res := execute(t, "", "--server", e.URL, "fetch")
	require.NoError(t, res.err)
	assert.Equal(t, rosterJSON, res.stdout)
}

func TestFetchAlwaysPrintsJSON(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")

	res := execute(t, "", "--server", e.URL, "--output", "text", "fetch")
	require.NoError(t, res.err)
	assert.Equal(t, rosterJSON, res.stdout)
}

func TestFetchUsesServerFromEnv(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")
	t.Setenv(EnvServer, e.URL)

	res := execute(t, "", "fetch")
	require.NoError(t, res.err)
	assert.Equal(t, rosterJSON, res.stdout)
}

func TestFetchMissingUsername(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	t.Setenv(EnvPassword, "hunter2")

	res := execute(t, "", "--server", e.URL, "fetch")
	require.ErrorIs(t, res.err, model.ErrMissingCredentials)
	assert.Contains(t, res.err.Error(), EnvUsername)
	assert.Empty(t, res.stdout)
	assert.Zero(t, e.requests.Load())
}

func TestFetchMissingPassword(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	t.Setenv(EnvUsername, "alice@example.com")

	res := execute(t, "", "--server", e.URL, "fetch")
	require.ErrorIs(t, res.err, model.ErrMissingCredentials)
	assert.Contains(t, res.err.Error(), EnvPassword)
	assert.Zero(t, e.requests.Load())
}

func TestFetchReadsEnvFile(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)

	envFile := filepath.Join(t.TempDir(), "creds.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SF_USERNAME=alice@example.com\nSF_PASSWORD=hunter2\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvUsername)
		_ = os.Unsetenv(EnvPassword)
	})

	res := execute(t, "", "--server", e.URL, "--env-file", envFile, "fetch")
	require.NoError(t, res.err)
	assert.Equal(t, rosterJSON, res.stdout)
}

func TestEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "loner@example.com")

	envFile := filepath.Join(t.TempDir(), "creds.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SF_USERNAME=alice@example.com\n"), 0o600))

	res := execute(t, "", "--server", e.URL, "--env-file", envFile, "fetch")
	assert.ErrorIs(t, res.err, model.ErrNotInGuild)
}

func TestExplicitEnvFileMustExist(t *testing.T) {
	isolateEnv(t)

	res := execute(t, "", "--env-file", filepath.Join(t.TempDir(), "nope.env"), "fetch")
	assert.ErrorIs(t, res.err, os.ErrNotExist)
}

func TestFetchWrongPassword(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	t.Setenv(EnvUsername, "alice@example.com")
	t.Setenv(EnvPassword, "wrong")

	res := execute(t, "", "--server", e.URL, "fetch")
	assert.ErrorIs(t, res.err, gameclient.ErrInvalidCredentials)
	assert.Empty(t, res.stdout)
}

func TestFetchNotInGuild(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "loner@example.com")

	res := execute(t, "", "--server", e.URL, "fetch")
	assert.ErrorIs(t, res.err, model.ErrNotInGuild)
	assert.Empty(t, res.stdout)
}

func TestFetchUnreachableServer(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")
	url := e.URL
	e.Close()

	res := execute(t, "", "--server", url, "fetch")
	assert.Error(t, res.err)
}

// tracking tests

func TestTrackRecordsTodayAndNotesThinHistory(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")
	data := filepath.Join(t.TempDir(), "levels.csv")

	res := execute(t, "", "--server", e.URL, "--data", data, "track")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Recorded 2 levels for")
	assert.Contains(t, res.stdout, "progress: "+model.ErrInsufficientHistory.Error())
	assert.Contains(t, res.stdout, "projection: "+model.ErrInsufficientHistory.Error())

	content, err := os.ReadFile(data)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,name,level", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",Zora,500"))
}

func TestTrackJSON(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")
	data := filepath.Join(t.TempDir(), "levels.csv")

	// Yesterday's roster, so today's run has two dates to compare
	yesterday := `[{"name":"Zora","level":490},{"name":"Aldric","level":312}]`
	require.NoError(t, execute(t, yesterday, "--data", data, "import", "--date", "2000-01-01").err)

	res := execute(t, "", "--server", e.URL, "--data", data, "-o", "json", "track")
	require.NoError(t, res.err)

	var out TrackResult
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, 2, out.Recorded.Recorded)
	require.Len(t, out.Progress, 2)
	assert.Equal(t, 3, out.Progress[0].Days)
	assert.Equal(t, []model.MemberProgress{
		{Name: "Zora", From: 490, To: 500, Delta: 10},
		{Name: "Aldric", From: 312, To: 312, Delta: 0},
	}, out.Progress[0].Best)
	assert.Nil(t, out.Projection)
	assert.Len(t, out.Notes, 1)
}

func TestTrackRequiresCredentials(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")

	res := execute(t, "", "--data", data, "track")
	assert.ErrorIs(t, res.err, model.ErrMissingCredentials)

	_, err := os.Stat(data)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func importDays(t *testing.T, data string, days map[string]string) {
	t.Helper()
	for date, roster := range days {
		res := execute(t, roster, "--data", data, "import", "--date", date)
		require.NoError(t, res.err, res.stderr)
	}
}

func TestImportFromFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "levels.csv")
	file := filepath.Join(dir, "roster.json")
	require.NoError(t, os.WriteFile(file, []byte(rosterJSON), 0o600))

	res := execute(t, "", "--data", data, "import", "--date", "2024-03-01", file)
	require.NoError(t, res.err)
	assert.Equal(t, "Recorded 2 levels for 2024-03-01\n", res.stdout)
}

func TestImportRejectsBadDate(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")

	res := execute(t, rosterJSON, "--data", data, "import", "--date", "March 1st")
	assert.Error(t, res.err)
}

func TestProgressReport(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")
	importDays(t, data, map[string]string{
		"2024-03-01": `[{"name":"Aldric","level":100},{"name":"Brenna","level":50}]`,
		"2024-03-02": `[{"name":"Aldric","level":101},{"name":"Brenna","level":60}]`,
	})

	res := execute(t, "", "--data", data, "progress", "--days", "2")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Analysing progress over these dates (2 days): 2024-03-01, 2024-03-02")
	assert.Contains(t, res.stdout, "=== Least progress over the last 2 days (top 2) ===\nAldric: 100 → 101 (Δ 1)\nBrenna: 50 → 60 (Δ 10)\n")
	assert.Contains(t, res.stdout, "=== Most progress over the last 2 days (top 2) ===\nBrenna: 50 → 60 (Δ 10)\nAldric: 100 → 101 (Δ 1)\n")
}

func TestProgressJSONWithTop(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")
	importDays(t, data, map[string]string{
		"2024-03-01": `[{"name":"Aldric","level":100},{"name":"Brenna","level":50}]`,
		"2024-03-02": `[{"name":"Aldric","level":101},{"name":"Brenna","level":60}]`,
	})

	res := execute(t, "", "--data", data, "-o", "json", "progress", "--top", "1")
	require.NoError(t, res.err)

	var out Progress
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, 3, out.Days)
	assert.Equal(t, []model.MemberProgress{{Name: "Aldric", From: 100, To: 101, Delta: 1}}, out.Worst)
	assert.Equal(t, []model.MemberProgress{{Name: "Brenna", From: 50, To: 60, Delta: 10}}, out.Best)
}

func TestProgressWithoutHistoryFails(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")

	res := execute(t, "", "--data", data, "progress")
	assert.ErrorIs(t, res.err, model.ErrNoHistory)
}

func TestProjectReport(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")

	days := map[string]string{}
	for i := 1; i <= 7; i++ {
		date := "2024-03-0" + string(rune('0'+i))
		days[date] = `[{"name":"Aldric","level":` + string(rune('0'+i)) + `}]`
	}
	importDays(t, data, days)

	res := execute(t, "", "--data", data, "project")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "=== Projected level in 7 days (top 1) ===\nAldric: 7 now, Δ last 7 days = 6, projected in 7 days: 13\n")
}

func TestProjectNeedsSevenDays(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")
	importDays(t, data, map[string]string{"2024-03-01": rosterJSON, "2024-03-02": rosterJSON})

	res := execute(t, "", "--data", data, "project")
	assert.ErrorIs(t, res.err, model.ErrInsufficientHistory)
}

func TestHistory(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")
	importDays(t, data, map[string]string{"2024-03-01": rosterJSON})

	res := execute(t, "", "--data", data, "history")
	require.NoError(t, res.err)
	assert.Equal(t, "DATE        NAME    LEVEL\n2024-03-01  Aldric  312\n2024-03-01  Zora    500\n", res.stdout)

	res = execute(t, "", "--data", data, "-o", "json", "history")
	require.NoError(t, res.err)
	var records []model.LevelRecord
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))
	assert.Len(t, records, 2)
}

func TestHistoryEmptyJSON(t *testing.T) {
	isolateEnv(t)
	data := filepath.Join(t.TempDir(), "levels.csv")

	res := execute(t, "", "--data", data, "-o", "json", "history")
	require.NoError(t, res.err)
	assert.Equal(t, "[]\n", res.stdout)
}

func TestMemoryStorage(t *testing.T) {
	isolateEnv(t)

	res := execute(t, rosterJSON, "--storage", "memory", "import")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Recorded 2 levels")
}

// misc

func TestHealth(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)

	res := execute(t, "", "--server", e.URL, "health")
	require.NoError(t, res.err)
	assert.Equal(t, "Status: ok\n", res.stdout)

	res = execute(t, "", "--server", e.URL, "-o", "json", "health")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"status":"ok"}`, res.stdout)
}

func TestInvalidOutputFormat(t *testing.T) {
	isolateEnv(t)

	res := execute(t, "", "-o", "xml", "health")
	assert.Error(t, res.err)
}

func TestVerboseLogsToStderr(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")

	res := execute(t, "", "--server", e.URL, "-v", "fetch")
	require.NoError(t, res.err)
	assert.Equal(t, rosterJSON, res.stdout)
	assert.Contains(t, res.stderr, "roster fetched")
}

// config layering

func TestResolveConfigPrecedence(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvServer, "http://env:1")
	t.Setenv(EnvStorage, "redis")
	t.Setenv(EnvData, "env.csv")

	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("storage: sqlite\ndata: file.db\ntop: 5\nshort_window: 4\n"), 0o600))

	flags := DefaultConfig()
	flags.ConfigFile = file
	flags.EnvFile = ""
	flags.DataPath = "flag.db"
	flags.Output = "json"

	changed := func(name string) bool { return name == "data" }
	c, err := resolveConfig(flags, changed)
	require.NoError(t, err)

	assert.Equal(t, "http://env:1", c.ServerURL)
	assert.Equal(t, "sqlite", c.StorageType)
	assert.Equal(t, "flag.db", c.DataPath)
	assert.Equal(t, 5, c.Top)
	assert.Equal(t, 4, c.ShortWindow)
	assert.Equal(t, 7, c.LongWindow)
	assert.Equal(t, "json", c.Output)
}

func TestResolveConfigDefaults(t *testing.T) {
	isolateEnv(t)

	flags := DefaultConfig()
	flags.EnvFile = ""
	c, err := resolveConfig(flags, func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ServerURL, c.ServerURL)
	assert.Equal(t, "csv", c.StorageType)
	assert.Equal(t, "data/guild_levels.csv", c.DataPath)
}

func TestResolveConfigRejectsBadFile(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "top: [1"},
		{"short window", "short_window: 1"},
		{"negative top", "top: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(file, []byte(tt.content), 0o600))

			flags := DefaultConfig()
			flags.EnvFile = ""
			flags.ConfigFile = file
			_, err := resolveConfig(flags, func(string) bool { return false })
			assert.Error(t, err)
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	isolateEnv(t)

	res := execute(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "health")
	assert.ErrorIs(t, res.err, os.ErrNotExist)
}

func TestTrackReportsStoredDate(t *testing.T) {
	isolateEnv(t)
	e := newEmulator(t)
	setCredentials(t, "alice@example.com")
	data := filepath.Join(t.TempDir(), "levels.csv")

	res := execute(t, "", "--server", e.URL, "--data", data, "-o", "json", "track")
	require.NoError(t, res.err)
	var out TrackResult
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))

	res = execute(t, "", "--data", data, "-o", "json", "history")
	require.NoError(t, res.err)
	var records []model.LevelRecord
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))

	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, out.Date, r.Date)
	}
}
