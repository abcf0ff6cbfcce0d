package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAuth_NoHeaderSource(t *testing.T) {
	r := New(Static{PageOrigin: "https://acme.zendesk.com", PageCookies: "_zendesk_session=abc; locale=en"})

	snap := r.GetAuth()

	assert.Equal(t, "_zendesk_session=abc; locale=en", snap.Cookies)
	assert.Equal(t, "https://acme.zendesk.com", snap.Origin)
	require.NotNil(t, snap.Headers)
	assert.Empty(t, snap.Headers)
}

func TestGetAuth_CopiesHeaderSource(t *testing.T) {
	src := StaticHeaders{"X-CSRF-Token": "t0k", "X-Zendesk-App-Id": "42"}
	r := New(Static{PageOrigin: "https://acme.zendesk.com"}, WithHeaderSource(src))

	snap := r.GetAuth()
	assert.Equal(t, map[string]string{"X-CSRF-Token": "t0k", "X-Zendesk-App-Id": "42"}, snap.Headers)

	// The snapshot owns its own map.
	snap.Headers["X-CSRF-Token"] = "changed"
	assert.Equal(t, "t0k", src["X-CSRF-Token"])
}

func TestGetAuth_NilHeaderSourceIgnored(t *testing.T) {
	r := New(Static{}, WithHeaderSource(nil))
	assert.NotNil(t, r.GetAuth().Headers)
}

func TestClientGetAuth_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := Start(ctx, New(Static{PageOrigin: "https://acme.zendesk.com", PageCookies: "k=v"}, WithHeaderSource(StaticHeaders{"X-Z": "1"})))

	snap, err := client.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, AuthSnapshot{Cookies: "k=v", Headers: map[string]string{"X-Z": "1"}, Origin: "https://acme.zendesk.com"}, snap)

	// A second request in the same session gets an equal, independent snapshot.
	again, err := client.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
	again.Headers["X-Z"] = "2"
	assert.Equal(t, "1", snap.Headers["X-Z"])
}

func TestClientGetAuth_ReplyClosedWithoutSnapshot(t *testing.T) {
	requests := make(chan GetAuthRequest)
	go func() {
		req := <-requests
		close(req.Reply)
	}()

	_, err := NewClient(requests).GetAuth(context.Background())
	require.ErrorIs(t, err, ErrNoAuthReturned)
}

func TestClientGetAuth_NobodyServing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(make(chan GetAuthRequest)).GetAuth(ctx)
	require.ErrorIs(t, err, ErrNoAuthReturned)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServe_StopsWhenRequestsClosed(t *testing.T) {
	requests := make(chan GetAuthRequest)
	done := make(chan struct{})
	go func() {
		New(Static{}).Serve(context.Background(), requests)
		close(done)
	}()

	close(requests)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after requests were closed")
	}
}
