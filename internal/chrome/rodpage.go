package chrome

import (
	"context"
	"net/http"

	"github.com/go-rod/rod"
)

// rodPage adapts a rod page to the page interface.
type rodPage struct {
	p *rod.Page
}

func (r rodPage) ID() string {
	return string(r.p.TargetID)
}

func (r rodPage) URL() (string, error) {
	info, err := r.p.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (r rodPage) Title() string {
	info, err := r.p.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (r rodPage) Eval(ctx context.Context, js string) (string, error) {
	res, err := r.p.Context(ctx).Eval(js)
	if err != nil {
		return "", err
	}
	if res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

func (r rodPage) Cookies(ctx context.Context, urls []string) ([]*http.Cookie, error) {
	cookies, err := r.p.Context(ctx).Cookies(urls)
	if err != nil {
		return nil, err
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out, nil
}
