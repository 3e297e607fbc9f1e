// Package memory keeps the process inside its container memory budget.
//
// [Configure] sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO unless
// GOMEMLIMIT is already set. Call it early in main, before the icon
// cache starts filling.
//
// [Monitor] samples the heap against that limit. Above the high water mark
// [Monitor.ShouldThrottle] returns true and the icon proxy skips background
// prewarming until usage drops again. Kubernetes users typically pass the
// limit through the Downward API:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
package memory
