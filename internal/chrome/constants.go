// Package chrome attaches to the user's running Chrome over the DevTools
// protocol and reads credentials from inside an open App Builder tab.
//
// Chrome must have been started with --remote-debugging-port. The package
// never navigates, opens or closes tabs; it only evaluates read-only
// expressions in the page.
package chrome

const (
	// DefaultControlURL is where Chrome listens when started with
	// --remote-debugging-port=9222.
	DefaultControlURL = "http://127.0.0.1:9222"

	// captureScript reads the page's origin, its script-visible cookies and,
	// when the Zendesk apps framework client is present, a copy of its
	// default request headers.
	captureScript = `() => {
		const client = window.zafClient;
		let headers = null;
		if (client && client._defaultHeaders) {
			headers = {};
			for (const [k, v] of Object.entries(client._defaultHeaders)) {
				headers[k] = String(v);
			}
		}
		return JSON.stringify({ origin: location.origin, cookies: document.cookie, headers });
	}`

	visibleScript = `() => document.visibilityState === 'visible'`
)
