package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "CAMPUS_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "dtr")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("CAMPUS_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("CAMPUS_TEST_ENV_LOAD"))
}

func TestParse_DTRDefaults(t *testing.T) {
	c := &Configuration{}
	require.NoError(t, c.parse())

	assert.True(t, c.DTR.PadFirstDay)
	assert.Equal(t, 11, c.DTR.TemplateFirstRow)
	assert.Equal(t, 41, c.DTR.TemplateLastRow)
	assert.Equal(t, "db", c.DTR.SubmitBackend)
	assert.Equal(t, "memory", c.DTR.RunStore)
	assert.Equal(t, 24*time.Hour, c.DTR.RunTTL)
	assert.Equal(t, "localhost:3200", c.SocketAddress)
	assert.Contains(t, c.Database.Opts, "dbname=campus")
	assert.Equal(t, []string{"http://localhost:3000"}, c.CORSOrigins)
	assert.False(t, c.RateLimit.Enabled)
	assert.Equal(t, int64(30), c.RateLimit.PerMinute)
}

func TestDTROptions_Validate(t *testing.T) {
	base := func() DTROptions {
		return DTROptions{
			TemplateFirstRow: 11,
			TemplateLastRow:  41,
			SubmitBackend:    "db",
			RunStore:         "memory",
			RunTTL:           time.Hour,
		}
	}

	cases := []struct {
		name    string
		mutate  func(o *DTROptions)
		wantErr bool
	}{
		{name: "defaults", mutate: func(o *DTROptions) {}},
		{name: "http without url", mutate: func(o *DTROptions) { o.SubmitBackend = "http" }, wantErr: true},
		{name: "http with url", mutate: func(o *DTROptions) { o.SubmitBackend = "HTTP"; o.SubmitURL = "http://x" }},
		{name: "unknown backend", mutate: func(o *DTROptions) { o.SubmitBackend = "ftp" }, wantErr: true},
		{name: "unknown store", mutate: func(o *DTROptions) { o.RunStore = "disk" }, wantErr: true},
		{name: "inverted rows", mutate: func(o *DTROptions) { o.TemplateLastRow = 5 }, wantErr: true},
		{name: "zero ttl", mutate: func(o *DTROptions) { o.RunTTL = 0 }, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := base()
			tc.mutate(&o)
			err := o.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
