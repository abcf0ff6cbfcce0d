package appbuilder

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pterm/pterm"
)

// Version is one saved version of an app, as listed by the API.
type Version struct {
	VersionID string    `json:"versionId"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"createdAt"`
}

// FileSet maps a relative file path to its content.
type FileSet map[string]string

type versionsResponse struct {
	Versions []Version `json:"versions"`
}

type appCodeResponse struct {
	Files FileSet `json:"files"`
}

// Timestamp accepts a date string in one of timeLayouts or Unix
// milliseconds. Anything else decodes to the zero time; the field is only
// displayed, so a bad value never fails the listing.
type Timestamp struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil || s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		pterm.Debug.Printfln("Unrecognized createdAt %q", s)
		return nil
	}
	ms, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		pterm.Debug.Printfln("Unrecognized createdAt %s", b)
		return nil
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
