// Package cookies reads a site's cookies from the user's local browser
// cookie stores so a download session can borrow an existing login.
//
// Chrome (unencrypted values only), Firefox and Netscape cookies.txt files
// are supported. SQLite stores are copied aside before they are opened so
// the running browser keeps its lock. Cookie values are never logged.
package cookies

import "time"

// Format identifies the format of a cookie store.
type Format int

const (
	FormatUnknown Format = iota
	FormatFirefox
	FormatChrome
	FormatNetscape
)

func (f Format) String() string {
	switch f {
	case FormatFirefox:
		return "Firefox"
	case FormatChrome:
		return "Chrome"
	case FormatNetscape:
		return "Netscape"
	default:
		return "unknown"
	}
}

// Cookie is a single cookie. Value is sensitive.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expiry   time.Time // zero for session cookies
	Secure   bool
	HttpOnly bool
}

// Source describes where cookies were read from.
type Source struct {
	Path   string
	Format Format
	// Skipped counts cookies that matched but could not be used, such as
	// Chrome values encrypted with the OS keychain.
	Skipped int
}
