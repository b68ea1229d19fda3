package game

// SyncRand is the deterministic random source shared by every client. Its whole
// state is the seed, so it can be saved and hashed.
type SyncRand struct {
	Seed uint32
}

// Next advances the generator and returns a 15-bit value.
func (r *SyncRand) Next() int {
	r.Seed = r.Seed*(0x12345678*4+1) + 1
	return int((r.Seed >> 16) & 0x7FFF)
}

// Intn returns a value in [0, n).
func (r *SyncRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.Next() % n
}
