package util

import "unsafe"

// CacheLineSize is a reasonable default for most modern CPUs.
const CacheLineSize = 64

// CacheLinePad separates hot fields (e.g. neighbouring shard locks) into
// distinct cache lines to reduce false sharing.
type CacheLinePad struct{ _ [CacheLineSize]byte }

var _ [CacheLineSize - int(unsafe.Sizeof(CacheLinePad{}))]byte
