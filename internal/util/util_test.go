package util

import (
	"hash/maphash"
	"strconv"
	"testing"
)

var seed = maphash.MakeSeed()

func TestNextPow2(t *testing.T) {
	t.Parallel()

	cases := map[uint64]uint64{
		0:          1,
		1:          1,
		2:          2,
		3:          4,
		63:         64,
		64:         64,
		65:         128,
		1<<63 - 1:  1 << 63,
		1<<63 + 1:  1 << 63,
		^uint64(0): 1 << 63,
	}
	for in, want := range cases {
		if got := NextPow2(in); got != want {
			t.Errorf("NextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestShardIndex_InRangeAndStable(t *testing.T) {
	t.Parallel()

	for _, shards := range []int{1, 2, 7, 64, 100} {
		for i := 0; i < 1000; i++ {
			h := Hash(seed, i)
			idx := ShardIndex(h, shards)
			if idx < 0 || idx >= shards {
				t.Fatalf("ShardIndex(%d, %d) = %d out of range", h, shards, idx)
			}
			if again := ShardIndex(Hash(seed, i), shards); again != idx {
				t.Fatalf("ShardIndex not stable for key %d: %d vs %d", i, idx, again)
			}
		}
	}
}

// Mask and modulo paths must agree for powers of two.
func TestShardIndex_MaskMatchesModulo(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		h := Hash(seed, "k:"+strconv.Itoa(i))
		if got, want := ShardIndex(h, 64), int(h%64); got != want {
			t.Fatalf("mask %d != modulo %d", got, want)
		}
	}
}

func TestHash_FastPaths(t *testing.T) {
	t.Parallel()

	if Hash(seed, "a") == Hash(seed, "b") {
		t.Fatal("distinct strings should (practically) not collide")
	}
	if Hash(seed, "abc") != Hash(maphash.MakeSeed(), "abc") {
		t.Fatal("string hash must not depend on the seed")
	}
	if Hash(seed, int64(42)) != Hash(seed, uint64(42)) {
		t.Fatal("int64 and uint64 with the same bits must hash alike")
	}
}

type pairKey struct {
	tenant int
	name   string
}

// Keys without a fast path (structs, bools, floats, pointers) still hash,
// deterministically for a given seed.
func TestHash_AnyComparable(t *testing.T) {
	t.Parallel()

	k := pairKey{1, "a"}
	if Hash(seed, k) != Hash(seed, pairKey{1, "a"}) {
		t.Fatal("equal struct keys must hash alike")
	}
	if Hash(seed, k) == Hash(seed, pairKey{2, "a"}) {
		t.Fatal("distinct struct keys should (practically) not collide")
	}
	if Hash(seed, true) == Hash(seed, false) {
		t.Fatal("bool keys should not collide")
	}
	if Hash(seed, 1.5) != Hash(seed, 1.5) {
		t.Fatal("float hash not deterministic")
	}
	p := &pairKey{}
	if Hash(seed, p) != Hash(seed, p) {
		t.Fatal("pointer hash not deterministic")
	}
	var iface any = "x"
	if Hash(seed, iface) != Hash(seed, iface) {
		t.Fatal("interface hash not deterministic")
	}
}
