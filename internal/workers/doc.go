/*
Package workers sizes and runs small worker pools in containerized
environments.

# Sizing

runtime.NumCPU reports the host's CPUs even when a cgroup limit applies,
while GOMAXPROCS follows the container limit (Go 1.19+). Count and the
task-specific helpers derive the worker count from GOMAXPROCS:

	// Icon prewarming fetches over the network and resizes in memory
	n := workers.ForMixed(8)

	// 3 workers per CPU, maximum of 24
	n := workers.Count(3.0, 24)

Operators can pin the count with ICON_WORKERS:

	env:
	- name: ICON_WORKERS
	  value: "4"

The override is still capped by the limit passed by the caller.

# Running

Run fans a slice of items out to a fixed number of goroutines and waits for
them. Cancelling the context stops new items from being handed out; items
already in progress see the cancelled context and are expected to return
promptly.

	workers.Run(ctx, n, urls, func(ctx context.Context, url string) {
		_, _ = proxy.Get(ctx, url)
	})

# Thread Safety

All functions in this package are safe for concurrent use.
*/
package workers
