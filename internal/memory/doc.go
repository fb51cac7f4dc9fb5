// Package memory configures the Go memory limit for containers and turns
// heap usage into a throttle signal for asset loading.
//
// Call ConfigureFromEnv early in main. GOMEMLIMIT wins when set; otherwise
// MEMORY_LIMIT (bytes, typically from the Kubernetes Downward API) times
// MEMORY_RATIO (default 0.85) becomes the limit:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// A Monitor samples heap usage against that limit. Above the high water
// mark ShouldThrottle reports true and the scheduler drops to a single
// in-flight request until usage falls below the low water mark.
package memory
