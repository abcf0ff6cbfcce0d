package cookies

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var sqliteMagic = []byte("SQLite format 3\x00")

// Store reads cookie files through a filesystem. SQLite stores must live on
// the OS filesystem because the driver opens them by path.
type Store struct {
	Fs afero.Fs
}

// NewStore returns a Store on the OS filesystem.
func NewStore() *Store {
	return &Store{Fs: afero.NewOsFs()}
}

// DetectFormat sniffs the cookie store format of the file at path.
func (s *Store) DetectFormat(path string) (Format, error) {
	info, err := s.Fs.Stat(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cookie file not found: %s", path)
	}
	if info.IsDir() {
		return FormatUnknown, fmt.Errorf("%s is a directory, expected a cookie file", path)
	}
	if info.Size() == 0 {
		return FormatUnknown, fmt.Errorf("cookie file at %s is empty", path)
	}

	f, err := s.Fs.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open cookie file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return FormatUnknown, fmt.Errorf("read cookie file: %w", err)
	}
	head = head[:n]

	if bytes.HasPrefix(head, sqliteMagic) {
		return detectSQLiteFormat(path)
	}

	first, _, _ := strings.Cut(string(head), "\n")
	switch strings.TrimRight(first, "\r") {
	case "# Netscape HTTP Cookie File", "# HTTP Cookie File":
		return FormatNetscape, nil
	}
	return FormatUnknown, fmt.Errorf("unsupported cookie file format at %s", path)
}

// SafeCopy copies a SQLite store and its -wal and -shm companions into a
// fresh temp directory. The caller must call cleanup.
func (s *Store) SafeCopy(src string) (dst string, cleanup func(), err error) {
	dir, err := afero.TempDir(s.Fs, "", "appsnap-cookies-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp directory: %w", err)
	}
	cleanup = func() { _ = s.Fs.RemoveAll(dir) }

	base := filepath.Base(src)
	dst = filepath.Join(dir, base)
	if err := s.copyFile(src, dst); err != nil {
		cleanup()
		return "", nil, err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if ok, _ := afero.Exists(s.Fs, src+suffix); ok {
			_ = s.copyFile(src+suffix, dst+suffix)
		}
	}
	return dst, cleanup, nil
}

func (s *Store) copyFile(src, dst string) error {
	in, err := s.Fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := s.Fs.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// Import reads the cookies that apply to host from the store at path.
func (s *Store) Import(path, host string) ([]Cookie, *Source, error) {
	format, err := s.DetectFormat(path)
	if err != nil {
		return nil, nil, err
	}
	src := &Source{Path: path, Format: format}

	switch format {
	case FormatNetscape:
		f, err := s.Fs.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open cookie file: %w", err)
		}
		defer f.Close()
		cookies, err := ParseNetscape(f, host)
		return cookies, src, err

	case FormatFirefox, FormatChrome:
		copied, cleanup, err := s.SafeCopy(path)
		if err != nil {
			return nil, nil, err
		}
		defer cleanup()

		if format == FormatFirefox {
			cookies, err := ParseFirefox(copied, host)
			return cookies, src, err
		}
		cookies, skipped, err := ParseChrome(copied, host)
		src.Skipped = skipped
		return cookies, src, err
	}
	return nil, nil, fmt.Errorf("unsupported cookie file format at %s", path)
}

// Header renders cookies as a Cookie header value. When a name repeats, the
// first occurrence wins, which is the most specific path given the store
// ordering.
func Header(cookies []Cookie) string {
	seen := make(map[string]struct{}, len(cookies))
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Page is a relay page context backed by cookies read from a store.
type Page struct {
	origin  string
	cookies string
}

// NewPage returns a page context for origin carrying cookies.
func NewPage(origin string, cookies []Cookie) Page {
	return Page{origin: origin, cookies: Header(cookies)}
}

func (p Page) Origin() string  { return p.origin }
func (p Page) Cookies() string { return p.cookies }
