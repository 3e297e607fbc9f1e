// Package middleware provides the HTTP middleware chain for the channel viewer.
//
// Every request path is first classified into a route: the page, JSON data,
// commands that load playlists or change the selection, proxied icons,
// static assets, health checks or metrics. The route label is the only path
// that reaches Prometheus, and the route kind decides what gets logged and
// compressed.
//
// It includes:
//   - Request ids carried in the X-Request-ID header
//   - Request logging in W3C Extended Log Format, with the state revision and
//     playlist source reported by the handlers
//   - Prometheus request metrics with bounded route labels
//   - Gzip compression of JSON and web UI responses
package middleware
