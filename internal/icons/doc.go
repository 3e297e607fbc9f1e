/*
Package icons proxies channel logos so the channel list gets small, uniform
images.

Only URLs that are the tvg-logo of a currently loaded channel are served;
anything else is rejected with ErrIconNotAllowed so the endpoint cannot be
used as an open proxy.

Each icon is fetched once (with a byte cap), checked with image.DecodeConfig
against MaxIconDimension and MaxIconPixels before decoding, scaled to fit a
Config.Size box and re-encoded as PNG. Results live in a bounded LRU cache.
Concurrent misses for the same URL share one fetch. The default client only
dials public addresses, so a playlist cannot point the proxy at loopback or
private hosts.

After a playlist load, Prewarm fills the cache for the first Config.Prewarm
icons using a worker pool sized by the workers package. Close cancels
prewarming at shutdown.
*/
package icons
