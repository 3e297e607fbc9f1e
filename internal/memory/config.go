package memory

import (
	"math"
	"runtime/debug"
	"strconv"

	"channel-viewer/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go heap.
// The rest covers goroutine stacks and decoded icon buffers in flight.
const DefaultMemoryRatio = 0.9

// Limit describes how the soft memory limit was decided.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a soft memory limit is in effect.
func (l Limit) Configured() bool {
	return l.GoMemLimit > 0
}

// Configure sets the runtime soft memory limit from the environment. It
// must run before the first large allocation. getenv is usually os.Getenv.
//
// An explicit GOMEMLIMIT wins. Otherwise MEMORY_LIMIT (bytes, typically
// from the Kubernetes Downward API) is scaled by MEMORY_RATIO.
func Configure(getenv func(string) string) Limit {
	if v := getenv("GOMEMLIMIT"); v != "" {
		limit := Limit{Source: "GOMEMLIMIT"}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit.GoMemLimit = current
		}
		logging.Info("  GOMEMLIMIT set via environment: %s", v)
		return limit
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT unset")
		return Limit{Source: "none"}
	}

	container, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || container <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return Limit{Source: "none"}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goLimit := int64(float64(container) * ratio)
	debug.SetMemoryLimit(goLimit)

	logging.Info("  Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		FormatBytes(goLimit), ratio*100, FormatBytes(container))

	return Limit{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: container,
		GoMemLimit:     goLimit,
		Ratio:          ratio,
	}
}

func parseRatio(raw string) float64 {
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q must be in (0, 1], using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// FormatBytes renders a byte count with binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
