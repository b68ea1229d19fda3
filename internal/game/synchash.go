package game

import (
	"encoding/hex"

	"lukechampine.com/blake3"

	"ironhold/internal/savefile"
)

// SyncHash digests the deterministic world state. Two peers that ran the same
// commands from the same start produce the same hash; the world ID is left out.
func (w *World) SyncHash() string {
	h := blake3.New(32, nil)
	if err := w.writeState(savefile.NewEncoder(h), false); err != nil {
		w.Log.WithError(err).Error("hashing world state")
	}
	return hex.EncodeToString(h.Sum(nil))
}
