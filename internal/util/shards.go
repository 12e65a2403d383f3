package util

import "runtime"

// ReasonableShardCount suggests a shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..256]. Stores never pick it
// themselves; the shard count is always an explicit construction parameter.
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > 256 {
		n = 256
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index in [0, shards).
// Power-of-two counts take the mask path; any other count uses modulo,
// which is the same result for powers of two.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}
