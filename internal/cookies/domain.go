package cookies

import "strings"

// candidateDomains lists the cookie domains that apply to host: the host
// itself (host-only and dotted) and every dotted parent short of the TLD.
func candidateDomains(host string) []string {
	host = strings.ToLower(strings.TrimPrefix(host, "."))
	out := []string{host, "." + host}

	labels := strings.Split(host, ".")
	for i := 1; i < len(labels)-1; i++ {
		out = append(out, "."+strings.Join(labels[i:], "."))
	}
	return out
}

// appliesTo reports whether a cookie stored for domain is sent to host.
func appliesTo(domain, host string) bool {
	domain = strings.ToLower(domain)
	host = strings.ToLower(host)
	if domain == host {
		return true
	}
	if !strings.HasPrefix(domain, ".") {
		return false
	}
	bare := domain[1:]
	return host == bare || strings.HasSuffix(host, domain)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
