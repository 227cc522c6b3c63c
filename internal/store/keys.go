// Package store provides key marshaling and ordering functions for the
// modernc.org/kv-backed sinks and repositories used throughout msfeature.
// It is adapted from the kortschak/ins internal/store package, which
// performed the same role for BLAST hit keys: fixed-width big-endian
// integer/float encoding, and a small family of kv.Options.Compare
// functions that recover the original fields to order on.
package store

import (
	"bytes"
	"encoding/binary"
	"math"
)

var order = binary.BigEndian

// MarshalInt returns a slice encoding n as an int64, the same helper
// kortschak/ins used for non-keyed aggregate values (e.g. region hit
// counts).
func MarshalInt(n int) []byte {
	var buf [8]byte
	order.PutUint64(buf[:], uint64(n))
	return buf[:]
}

// UnmarshalInt is the inverse of MarshalInt.
func UnmarshalInt(b []byte) int {
	return int(order.Uint64(b))
}

// ChargeClusterKey orders ChargeClusterRecord rows within one sample's
// store by scan index and, within a scan, by descending intensity — the
// emission order required by spec.md §5 ("within one sample, Charge-Cluster
// Records are emitted in (scan_index, descending intensity of candidate
// m/z) order").
type ChargeClusterKey struct {
	ScanIndex int64
	// NegIntensity holds the value the caller supplies (sink passes the
	// positive candidate intensity); MarshalChargeClusterKey stores the
	// bits of its negation. Plain byte-order comparison of that encoding
	// does not give descending intensity, so the descending order within a
	// scan comes from the ByScanThenIntensity Compare callback.
	NegIntensity float64
	Charge       int64
	MZFound      float64
}

// MarshalChargeClusterKey encodes k as a fixed-width big-endian key.
func MarshalChargeClusterKey(k ChargeClusterKey) []byte {
	var buf bytes.Buffer
	var b [8]byte
	order.PutUint64(b[:], uint64(k.ScanIndex))
	buf.Write(b[:])
	order.PutUint64(b[:], math.Float64bits(-k.NegIntensity))
	buf.Write(b[:])
	order.PutUint64(b[:], uint64(k.Charge))
	buf.Write(b[:])
	order.PutUint64(b[:], math.Float64bits(k.MZFound))
	buf.Write(b[:])
	return buf.Bytes()
}

// UnmarshalChargeClusterKey is the inverse of MarshalChargeClusterKey.
func UnmarshalChargeClusterKey(data []byte) ChargeClusterKey {
	var k ChargeClusterKey
	n := 8
	k.ScanIndex = int64(order.Uint64(data[:n]))
	data = data[n:]
	k.NegIntensity = -math.Float64frombits(order.Uint64(data[:n]))
	data = data[n:]
	k.Charge = int64(order.Uint64(data[:n]))
	data = data[n:]
	k.MZFound = math.Float64frombits(order.Uint64(data[:n]))
	return k
}

// ByScanThenIntensity is a kv compare function ordering
// ChargeClusterRecord keys by scan_index ascending, then intensity
// descending, then charge and m/z for uniqueness. It is the direct
// analogue of kortschak/ins's GroupByQueryOrderSubjectLeft, retargeted
// from (strand, query, subject) to (scan, intensity).
func ByScanThenIntensity(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	rx := UnmarshalChargeClusterKey(x)
	ry := UnmarshalChargeClusterKey(y)

	switch {
	case rx.ScanIndex < ry.ScanIndex:
		return -1
	case rx.ScanIndex > ry.ScanIndex:
		return 1
	}
	switch {
	case rx.NegIntensity > ry.NegIntensity:
		return -1
	case rx.NegIntensity < ry.NegIntensity:
		return 1
	}
	switch {
	case rx.Charge < ry.Charge:
		return -1
	case rx.Charge > ry.Charge:
		return 1
	}
	switch {
	case rx.MZFound < ry.MZFound:
		return -1
	case rx.MZFound > ry.MZFound:
		return 1
	}
	return 0
}

// FeatureKey orders Features within a sample's store by apex RT.
type FeatureKey struct {
	ApexRT         float64
	MWMonoisotopic float64
}

// MarshalFeatureKey encodes k as a fixed-width big-endian key.
func MarshalFeatureKey(k FeatureKey) []byte {
	var buf bytes.Buffer
	var b [8]byte
	order.PutUint64(b[:], math.Float64bits(k.ApexRT))
	buf.Write(b[:])
	order.PutUint64(b[:], math.Float64bits(k.MWMonoisotopic))
	buf.Write(b[:])
	return buf.Bytes()
}

// UnmarshalFeatureKey is the inverse of MarshalFeatureKey.
func UnmarshalFeatureKey(data []byte) FeatureKey {
	var k FeatureKey
	k.ApexRT = math.Float64frombits(order.Uint64(data[:8]))
	k.MWMonoisotopic = math.Float64frombits(order.Uint64(data[8:16]))
	return k
}

// ByApexRT is a kv compare function ordering Feature keys by apex RT then
// mass, the natural read order for a feature table.
func ByApexRT(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	rx := UnmarshalFeatureKey(x)
	ry := UnmarshalFeatureKey(y)
	switch {
	case rx.ApexRT < ry.ApexRT:
		return -1
	case rx.ApexRT > ry.ApexRT:
		return 1
	}
	switch {
	case rx.MWMonoisotopic < ry.MWMonoisotopic:
		return -1
	case rx.MWMonoisotopic > ry.MWMonoisotopic:
		return 1
	}
	return 0
}

// WeightKey addresses one entry of one layer of one NN model:
// (model_id, layer_index, row, col) -> value, per spec.md §6 Inbound NN
// weights store.
type WeightKey struct {
	ModelID    int64
	LayerIndex int64
	Row        int64
	Col        int64
}

// MarshalWeightKey encodes k as a fixed-width big-endian key, ordered so
// that a sorted scan naturally groups by model, then layer, then
// row-major matrix order.
func MarshalWeightKey(k WeightKey) []byte {
	var buf bytes.Buffer
	var b [8]byte
	for _, v := range []int64{k.ModelID, k.LayerIndex, k.Row, k.Col} {
		order.PutUint64(b[:], uint64(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

// UnmarshalWeightKey is the inverse of MarshalWeightKey.
func UnmarshalWeightKey(data []byte) WeightKey {
	vals := make([]int64, 4)
	for i := range vals {
		vals[i] = int64(order.Uint64(data[i*8 : i*8+8]))
	}
	return WeightKey{ModelID: vals[0], LayerIndex: vals[1], Row: vals[2], Col: vals[3]}
}

// MarshalFloat64 and UnmarshalFloat64 encode a single weight value as an
// 8-byte big-endian payload.
func MarshalFloat64(v float64) []byte {
	var b [8]byte
	order.PutUint64(b[:], math.Float64bits(v))
	return b[:]
}

func UnmarshalFloat64(b []byte) float64 {
	return math.Float64frombits(order.Uint64(b))
}

// LayersCountKey is the key under which a model's layer shapes are
// recorded (as a MarshalInt-encoded layers_count, plus a dims record per
// layer written by the caller).
func LayersCountKey(modelID int64) []byte {
	var b [8]byte
	order.PutUint64(b[:], uint64(modelID))
	return append([]byte("layers:"), b[:]...)
}
