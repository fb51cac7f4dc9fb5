/*
Package workers sizes worker pools from the CPUs actually available.

Go sets GOMAXPROCS from container CPU limits, while runtime.NumCPU still
reports the host. Pool sizes are therefore derived from GOMAXPROCS times a
multiplier for the workload type:

	workers.ForCPU(8)    // 1 per CPU, decoding and resizing
	workers.ForIO(16)    // 2 per CPU, network fetches
	workers.ForMixed(12) // 1.5 per CPU, thumbnail generation

Operators can pin the count with GENERATOR_WORKERS; the limit passed by the
caller still applies.
*/
package workers
