package store

import (
	"encoding/binary"
	"math"
)

// #region vector-encoding
// encodeVector packs a float64 vector into a little-endian BLOB.
func encodeVector(v []float64) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// decodeVector unpacks a BLOB written by encodeVector.
func decodeVector(b []byte) []float64 {
	if len(b) < 8 {
		return nil
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

// #endregion vector-encoding
