package cookies

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type chromeRow struct {
	Name, Value   string
	Encrypted     []byte
	HostKey, Path string
	ExpiresUTC    int64
	Secure        int
	HTTPOnly      int
}

func createChromeFixture(t *testing.T, dir string, rows []chromeRow) string {
	t.Helper()
	dbPath := filepath.Join(dir, "Cookies")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE cookies (
		creation_utc INTEGER NOT NULL DEFAULT 0,
		host_key TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		encrypted_value BLOB DEFAULT '',
		path TEXT NOT NULL,
		expires_utc INTEGER NOT NULL,
		is_secure INTEGER NOT NULL,
		is_httponly INTEGER NOT NULL
	)`)
	require.NoError(t, err)

	for _, r := range rows {
		enc := r.Encrypted
		if enc == nil {
			enc = []byte{}
		}
		_, err := db.Exec(`INSERT INTO cookies (host_key, name, value, encrypted_value, path, expires_utc, is_secure, is_httponly) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.HostKey, r.Name, r.Value, enc, r.Path, r.ExpiresUTC, r.Secure, r.HTTPOnly)
		require.NoError(t, err)
	}
	return dbPath
}

type firefoxRow struct {
	Name, Value, Host, Path string
	Expiry                  int64
	Secure, HTTPOnly        int
}

func createFirefoxFixture(t *testing.T, dir string, rows []firefoxRow) string {
	t.Helper()
	dbPath := filepath.Join(dir, "cookies.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE moz_cookies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		host TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		expiry INTEGER NOT NULL DEFAULT 0,
		isSecure INTEGER NOT NULL DEFAULT 0,
		isHttpOnly INTEGER NOT NULL DEFAULT 0
	)`)
	require.NoError(t, err)

	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO moz_cookies (name, value, host, path, expiry, isSecure, isHttpOnly) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Name, r.Value, r.Host, r.Path, r.Expiry, r.Secure, r.HTTPOnly)
		require.NoError(t, err)
	}
	return dbPath
}

func toChrome(tm time.Time) int64 {
	return (tm.Unix() + chromeEpochOffsetSeconds) * 1_000_000
}

func names(cookies []Cookie) []string {
	out := make([]string, len(cookies))
	for i, c := range cookies {
		out[i] = c.Name
	}
	return out
}

func TestParseChrome(t *testing.T) {
	future := toChrome(time.Now().Add(24 * time.Hour))
	past := toChrome(time.Now().Add(-24 * time.Hour))

	dbPath := createChromeFixture(t, t.TempDir(), []chromeRow{
		{Name: "_zendesk_session", Value: "s3ss", HostKey: "acme.zendesk.com", Path: "/", ExpiresUTC: 0, Secure: 1, HTTPOnly: 1},
		{Name: "__cf_bm", Value: "cf", HostKey: ".zendesk.com", Path: "/", ExpiresUTC: future},
		{Name: "other", Value: "x", HostKey: "other.zendesk.com", Path: "/", ExpiresUTC: future},
		{Name: "stale", Value: "old", HostKey: "acme.zendesk.com", Path: "/", ExpiresUTC: past},
		{Name: "locked", Value: "", Encrypted: []byte("v10secret"), HostKey: "acme.zendesk.com", Path: "/", ExpiresUTC: future},
	})

	cookies, skipped, err := ParseChrome(dbPath, "acme.zendesk.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"_zendesk_session", "__cf_bm"}, names(cookies))
	assert.Equal(t, 1, skipped)

	for _, c := range cookies {
		if c.Name == "_zendesk_session" {
			assert.True(t, c.Expiry.IsZero(), "session cookie has no expiry")
			assert.True(t, c.Secure)
			assert.True(t, c.HttpOnly)
		}
	}
}

func TestParseFirefox(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Unix()
	past := time.Now().Add(-24 * time.Hour).Unix()

	dbPath := createFirefoxFixture(t, t.TempDir(), []firefoxRow{
		{Name: "_zendesk_shared_session", Value: "a", Host: ".zendesk.com", Path: "/", Expiry: future, Secure: 1, HTTPOnly: 1},
		{Name: "_help_center_session", Value: "b", Host: "acme.zendesk.com", Path: "/hc", Expiry: future},
		{Name: "stale", Value: "c", Host: "acme.zendesk.com", Path: "/", Expiry: past},
		{Name: "tld", Value: "d", Host: ".com", Path: "/", Expiry: future},
	})

	cookies, err := ParseFirefox(dbPath, "acme.zendesk.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"_help_center_session", "_zendesk_shared_session"}, names(cookies))
}

func TestDetectSQLiteFormat(t *testing.T) {
	ff := createFirefoxFixture(t, t.TempDir(), nil)
	format, err := detectSQLiteFormat(ff)
	require.NoError(t, err)
	assert.Equal(t, FormatFirefox, format)

	cr := createChromeFixture(t, t.TempDir(), nil)
	format, err = detectSQLiteFormat(cr)
	require.NoError(t, err)
	assert.Equal(t, FormatChrome, format)
}
