package cookies

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netscapeFixture = "# Netscape HTTP Cookie File\n" +
	".zendesk.com\tTRUE\t/\tTRUE\t0\t_zendesk_shared_session\tshared\n" +
	"#HttpOnly_acme.zendesk.com\tFALSE\t/\tTRUE\t4102444800\t_zendesk_session\tsess\n" +
	"other.zendesk.com\tFALSE\t/\tFALSE\t4102444800\tforeign\tnope\n" +
	"acme.zendesk.com\tFALSE\t/\tFALSE\t1000\texpired\told\n" +
	"acme.zendesk.com\tFALSE\t/\tFALSE\tsoon\tbadexpiry\tx\n" +
	"malformed line\n"

func TestParseNetscape(t *testing.T) {
	cookies, err := ParseNetscape(strings.NewReader(netscapeFixture), "acme.zendesk.com")
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "_zendesk_shared_session", cookies[0].Name)
	assert.True(t, cookies[0].Expiry.IsZero())
	assert.False(t, cookies[0].HttpOnly)

	assert.Equal(t, "_zendesk_session", cookies[1].Name)
	assert.True(t, cookies[1].HttpOnly)
	assert.Equal(t, time.Unix(4102444800, 0), cookies[1].Expiry)
}

func TestAppliesTo(t *testing.T) {
	tests := []struct {
		domain, host string
		want         bool
	}{
		{"acme.zendesk.com", "acme.zendesk.com", true},
		{".acme.zendesk.com", "acme.zendesk.com", true},
		{".zendesk.com", "acme.zendesk.com", true},
		{"zendesk.com", "acme.zendesk.com", false},
		{"other.zendesk.com", "acme.zendesk.com", false},
		{".cme.zendesk.com", "acme.zendesk.com", false},
		{"ACME.zendesk.com", "acme.zendesk.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, appliesTo(tt.domain, tt.host))
		})
	}
}

func TestCandidateDomains(t *testing.T) {
	assert.Equal(t,
		[]string{"acme.zendesk.com", ".acme.zendesk.com", ".zendesk.com"},
		candidateDomains("acme.zendesk.com"))
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "", Header(nil))
	assert.Equal(t, "a=1; b=2", Header([]Cookie{
		{Name: "a", Value: "1", Path: "/admin"},
		{Name: "b", Value: "2"},
		{Name: "a", Value: "shadowed", Path: "/"},
	}))

	page := NewPage("https://acme.zendesk.com", []Cookie{{Name: "k", Value: "v"}})
	assert.Equal(t, "https://acme.zendesk.com", page.Origin())
	assert.Equal(t, "k=v", page.Cookies())
}

func TestDetectFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := &Store{Fs: fs}

	require.NoError(t, afero.WriteFile(fs, "/c/cookies.txt", []byte(netscapeFixture), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/c/legacy.txt", []byte("# HTTP Cookie File\r\n"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/c/empty.txt", nil, 0o600))
	require.NoError(t, afero.WriteFile(fs, "/c/notes.txt", []byte("hello"), 0o600))
	require.NoError(t, fs.MkdirAll("/c/dir", 0o755))

	format, err := store.DetectFormat("/c/cookies.txt")
	require.NoError(t, err)
	assert.Equal(t, FormatNetscape, format)

	format, err = store.DetectFormat("/c/legacy.txt")
	require.NoError(t, err)
	assert.Equal(t, FormatNetscape, format)

	for path, msg := range map[string]string{
		"/c/missing.txt": "not found",
		"/c/empty.txt":   "empty",
		"/c/notes.txt":   "unsupported",
		"/c/dir":         "directory",
	} {
		_, err := store.DetectFormat(path)
		assert.ErrorContains(t, err, msg, path)
	}
}

func TestSafeCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := &Store{Fs: fs}

	require.NoError(t, afero.WriteFile(fs, "/profile/Cookies", []byte("main"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/profile/Cookies-wal", []byte("wal"), 0o600))

	dst, cleanup, err := store.SafeCopy("/profile/Cookies")
	require.NoError(t, err)

	got, err := afero.ReadFile(fs, dst)
	require.NoError(t, err)
	assert.Equal(t, "main", string(got))

	wal, err := afero.ReadFile(fs, dst+"-wal")
	require.NoError(t, err)
	assert.Equal(t, "wal", string(wal))

	ok, _ := afero.Exists(fs, dst+"-shm")
	assert.False(t, ok)

	cleanup()
	ok, _ = afero.DirExists(fs, filepath.Dir(dst))
	assert.False(t, ok)
}

func TestSafeCopy_MissingSource(t *testing.T) {
	store := &Store{Fs: afero.NewMemMapFs()}
	_, _, err := store.SafeCopy("/nope/Cookies")
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	store := NewStore()

	t.Run("netscape", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.txt")
		require.NoError(t, os.WriteFile(path, []byte(netscapeFixture), 0o600))

		cookies, src, err := store.Import(path, "acme.zendesk.com")
		require.NoError(t, err)
		assert.Equal(t, FormatNetscape, src.Format)
		assert.Len(t, cookies, 2)
	})

	t.Run("firefox", func(t *testing.T) {
		future := time.Now().Add(time.Hour).Unix()
		path := createFirefoxFixture(t, t.TempDir(), []firefoxRow{
			{Name: "sid", Value: "1", Host: ".zendesk.com", Path: "/", Expiry: future},
		})

		cookies, src, err := store.Import(path, "acme.zendesk.com")
		require.NoError(t, err)
		assert.Equal(t, FormatFirefox, src.Format)
		assert.Equal(t, "sid=1", Header(cookies))
	})

	t.Run("chrome", func(t *testing.T) {
		path := createChromeFixture(t, t.TempDir(), []chromeRow{
			{Name: "sid", Value: "1", HostKey: "acme.zendesk.com", Path: "/"},
			{Name: "enc", Encrypted: []byte("v10"), HostKey: "acme.zendesk.com", Path: "/"},
		})

		cookies, src, err := store.Import(path, "acme.zendesk.com")
		require.NoError(t, err)
		assert.Equal(t, FormatChrome, src.Format)
		assert.Equal(t, 1, src.Skipped)
		assert.Equal(t, "sid=1", Header(cookies))
	})
}
