// Package codec compresses and fingerprints binary blobs: save bodies stored
// in the database and minimap frames sent to spectators.
package codec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// ErrCorrupt is returned when a blob cannot be decompressed.
var ErrCorrupt = errors.New("corrupt lz4 stream")

var bufferPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Compress returns src as an lz4 frame.
func Compress(src []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()

	zw := lz4.NewWriter(buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Decompress reverses Compress.
func Decompress(src []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()

	zr := lz4.NewReader(bytes.NewReader(src))
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Checksum returns the hex blake3-256 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
