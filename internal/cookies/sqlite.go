package cookies

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/samber/lo"
	_ "modernc.org/sqlite"
)

// chromeEpochOffsetSeconds is the number of seconds between 1601-01-01 and
// 1970-01-01, the epochs of Chrome and Unix timestamps.
const chromeEpochOffsetSeconds int64 = 11_644_473_600

func chromeToTime(usec int64) time.Time {
	if usec == 0 {
		return time.Time{}
	}
	return time.Unix(usec/1_000_000-chromeEpochOffsetSeconds, 0)
}

func openImmutable(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite", fmt.Sprintf("file:%s?immutable=1", dbPath))
}

// ParseChrome reads the cookies that apply to host from a copied Chrome
// Cookies database. Session cookies are kept; expired and encrypted ones
// are not. The number of encrypted matches is returned as skipped.
func ParseChrome(dbPath, host string) (cookies []Cookie, skipped int, err error) {
	db, err := openImmutable(dbPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open Chrome cookie database: %w", err)
	}
	defer db.Close()

	domains := candidateDomains(host)
	nowChrome := (time.Now().Unix() + chromeEpochOffsetSeconds) * 1_000_000

	rows, err := db.Query(`
		SELECT name, value, length(encrypted_value), host_key, path, expires_utc, is_secure, is_httponly
		FROM cookies
		WHERE host_key IN (`+placeholders(len(domains))+`)
		  AND (expires_utc = 0 OR expires_utc > ?)
		ORDER BY path DESC, name ASC
	`, append(lo.ToAnySlice(domains), nowChrome)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query Chrome cookies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, value, hostKey, path string
			encLen                     sql.NullInt64
			expiresUTC                 int64
			isSecure, isHTTPOnly       int
		)
		if err := rows.Scan(&name, &value, &encLen, &hostKey, &path, &expiresUTC, &isSecure, &isHTTPOnly); err != nil {
			return nil, 0, fmt.Errorf("scan Chrome cookie row: %w", err)
		}
		if value == "" {
			if encLen.Int64 > 0 {
				skipped++
			}
			continue
		}
		cookies = append(cookies, Cookie{
			Name:     name,
			Value:    value,
			Domain:   hostKey,
			Path:     path,
			Expiry:   chromeToTime(expiresUTC),
			Secure:   isSecure != 0,
			HttpOnly: isHTTPOnly != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate Chrome cookie rows: %w", err)
	}
	return cookies, skipped, nil
}

// ParseFirefox reads the unexpired cookies that apply to host from a copied
// Firefox cookies.sqlite database.
func ParseFirefox(dbPath, host string) ([]Cookie, error) {
	db, err := openImmutable(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open Firefox cookie database: %w", err)
	}
	defer db.Close()

	domains := candidateDomains(host)

	rows, err := db.Query(`
		SELECT name, value, host, path, expiry, isSecure, isHttpOnly
		FROM moz_cookies
		WHERE host IN (`+placeholders(len(domains))+`)
		  AND expiry > ?
		ORDER BY path DESC, name ASC
	`, append(lo.ToAnySlice(domains), time.Now().Unix())...)
	if err != nil {
		return nil, fmt.Errorf("query Firefox cookies: %w", err)
	}
	defer rows.Close()

	var cookies []Cookie
	for rows.Next() {
		var (
			name, value, hostKey, path string
			expiry                     int64
			isSecure, isHTTPOnly       int
		)
		if err := rows.Scan(&name, &value, &hostKey, &path, &expiry, &isSecure, &isHTTPOnly); err != nil {
			return nil, fmt.Errorf("scan Firefox cookie row: %w", err)
		}
		cookies = append(cookies, Cookie{
			Name:     name,
			Value:    value,
			Domain:   hostKey,
			Path:     path,
			Expiry:   time.Unix(expiry, 0),
			Secure:   isSecure != 0,
			HttpOnly: isHTTPOnly != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate Firefox cookie rows: %w", err)
	}
	return cookies, nil
}

// detectSQLiteFormat tells Firefox and Chrome stores apart by their tables.
func detectSQLiteFormat(path string) (Format, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return FormatUnknown, fmt.Errorf("open SQLite database: %w", err)
	}
	defer db.Close()

	var name string
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='moz_cookies'`).Scan(&name); err == nil {
		return FormatFirefox, nil
	}
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='cookies'`).Scan(&name); err == nil {
		return FormatChrome, nil
	}
	return FormatUnknown, fmt.Errorf("unsupported cookie database schema at %s", path)
}
