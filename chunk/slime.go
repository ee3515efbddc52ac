package chunk

// SlimeChunk reports whether slimes spawn in chunk x, z of a world with the
// given seed. The mixing reproduces the game's arithmetic exactly: the first,
// second and fourth products wrap at 32 bits, the third is widened after the
// 32-bit square.
func SlimeChunk(seed int64, x, z int32) bool {
	mixed := (seed +
		int64(x*x*0x4c1906) +
		int64(x*0x5ac0db) +
		int64(z*z)*0x4307a7 +
		int64(z*0x5f24f)) ^ 0x3ad8025f
	return newJavaRandom(mixed).nextInt(10) == 0
}

const (
	lcgMultiplier = 0x5DEECE66D
	lcgAddend     = 0xB
	lcgMask       = 1<<48 - 1
)

// javaRandom is the 48-bit linear congruential generator the seed formula is
// defined against.
type javaRandom struct {
	seed int64
}

func newJavaRandom(seed int64) *javaRandom {
	return &javaRandom{seed: (seed ^ lcgMultiplier) & lcgMask}
}

func (r *javaRandom) next(bits uint) int32 {
	r.seed = (r.seed*lcgMultiplier + lcgAddend) & lcgMask
	return int32(uint64(r.seed) >> (48 - bits))
}

func (r *javaRandom) nextInt(bound int32) int32 {
	if bound&-bound == bound {
		return int32((int64(bound) * int64(r.next(31))) >> 31)
	}
	for {
		bits := r.next(31)
		val := bits % bound
		if bits-val+(bound-1) >= 0 {
			return val
		}
	}
}
