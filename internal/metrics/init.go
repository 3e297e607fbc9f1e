package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, source := range []string{"remote", "upload"} {
		for _, status := range []string{"success", "error"} {
			PlaylistLoadsTotal.WithLabelValues(source, status)
		}
	}

	for _, status := range []string{"success", "error"} {
		PlaylistFetchDuration.WithLabelValues(status)
	}

	for _, mode := range []string{"index", "channel"} {
		SelectionChangesTotal.WithLabelValues(mode)
	}

	for _, status := range []string{"hit", "miss", "error", "rejected"} {
		IconRequestsTotal.WithLabelValues(status)
	}
}
