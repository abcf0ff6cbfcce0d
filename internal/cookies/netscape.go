package cookies

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

const httpOnlyPrefix = "#HttpOnly_"

// ParseNetscape reads the unexpired cookies that apply to host from a
// Netscape cookies.txt stream. Malformed lines are skipped.
func ParseNetscape(r io.Reader, host string) ([]Cookie, error) {
	now := time.Now()
	var cookies []Cookie

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		httpOnly := false
		if rest, ok := strings.CutPrefix(line, httpOnlyPrefix); ok {
			httpOnly = true
			line = rest
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			pterm.Debug.Println("skipping malformed cookies.txt line")
			continue
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			pterm.Debug.Printfln("skipping cookie %q with invalid expiry", fields[5])
			continue
		}

		domain := fields[0]
		if !appliesTo(domain, host) {
			continue
		}
		c := Cookie{
			Name:     fields[5],
			Value:    fields[6],
			Domain:   domain,
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			HttpOnly: httpOnly,
		}
		if expiry > 0 {
			c.Expiry = time.Unix(expiry, 0)
			if c.Expiry.Before(now) {
				continue
			}
		}
		cookies = append(cookies, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookies.txt: %w", err)
	}
	return cookies, nil
}
