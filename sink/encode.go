package sink

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/kortschak/msfeature/model"
)

var order = binary.BigEndian

func putFloat64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	order.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func getFloat64(data []byte) (float64, []byte) {
	return math.Float64frombits(order.Uint64(data[:8])), data[8:]
}

func putInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	order.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func getInt64(data []byte) (int64, []byte) {
	return int64(order.Uint64(data[:8])), data[8:]
}

// encodeChargeCluster renders a ChargeClusterRecord as a fixed-width
// value payload, mirroring the flat-field style of the kv keys in
// internal/store.
func encodeChargeCluster(rec model.ChargeClusterRecord) []byte {
	var buf bytes.Buffer
	putInt64(&buf, int64(rec.ScanIndex))
	putInt64(&buf, int64(rec.VendorScanNumber))
	putFloat64(&buf, rec.RT)
	putFloat64(&buf, rec.MZFound)
	putFloat64(&buf, rec.MaxIntensity)
	putFloat64(&buf, rec.MWMonoisotopic)
	putInt64(&buf, int64(rec.MonoOffset))
	putFloat64(&buf, rec.Correlation)
	putInt64(&buf, int64(rec.Charge))
	putInt64(&buf, int64(rec.IsotopeCount))
	putFloat64(&buf, rec.ScanNoiseFloor)
	return buf.Bytes()
}

// DecodeChargeCluster is the inverse of encodeChargeCluster, exported for
// cmd/auditdb.
func DecodeChargeCluster(data []byte) model.ChargeClusterRecord {
	var rec model.ChargeClusterRecord
	var v int64
	v, data = getInt64(data)
	rec.ScanIndex = int(v)
	v, data = getInt64(data)
	rec.VendorScanNumber = int(v)
	rec.RT, data = getFloat64(data)
	rec.MZFound, data = getFloat64(data)
	rec.MaxIntensity, data = getFloat64(data)
	rec.MWMonoisotopic, data = getFloat64(data)
	v, data = getInt64(data)
	rec.MonoOffset = int(v)
	rec.Correlation, data = getFloat64(data)
	v, data = getInt64(data)
	rec.Charge = int(v)
	v, data = getInt64(data)
	rec.IsotopeCount = int(v)
	rec.ScanNoiseFloor, _ = getFloat64(data)
	return rec
}

// encodeFeature renders a Feature as a fixed-width value payload.
func encodeFeature(f model.Feature) []byte {
	var buf bytes.Buffer
	putFloat64(&buf, f.XICStartRT)
	putFloat64(&buf, f.XICEndRT)
	putFloat64(&buf, f.ApexRT)
	putFloat64(&buf, f.MWMonoisotopic)
	putFloat64(&buf, f.MaxCorr)
	putFloat64(&buf, f.MaxIntensity)
	putInt64(&buf, int64(f.IonCount))
	putInt64(&buf, int64(f.MaxIsotopeCount))
	putInt64(&buf, int64(len(f.ChargeOrder)))
	for _, c := range f.ChargeOrder {
		putInt64(&buf, int64(c))
	}
	return buf.Bytes()
}

// DecodeFeature is the inverse of encodeFeature, exported for cmd/auditdb.
func DecodeFeature(data []byte) model.Feature {
	var f model.Feature
	var v int64
	f.XICStartRT, data = getFloat64(data)
	f.XICEndRT, data = getFloat64(data)
	f.ApexRT, data = getFloat64(data)
	f.MWMonoisotopic, data = getFloat64(data)
	f.MaxCorr, data = getFloat64(data)
	f.MaxIntensity, data = getFloat64(data)
	v, data = getInt64(data)
	f.IonCount = int(v)
	v, data = getInt64(data)
	f.MaxIsotopeCount = int(v)
	v, data = getInt64(data)
	n := int(v)
	f.ChargeOrder = make([]int, n)
	for i := 0; i < n; i++ {
		v, data = getInt64(data)
		f.ChargeOrder[i] = int(v)
	}
	return f
}
