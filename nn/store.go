package nn

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"modernc.org/kv"

	"github.com/kortschak/msfeature/internal/store"
)

// WeightsStore is the keyed repository contract from spec.md §6 Inbound:
// entries (model_id, layer_index, row, col, value) plus a layers_count per
// model. ChargeModelID is fetched for the charge determinator;
// MonoisotopeModelID(charge) is fetched for charges 1..C_max.
type WeightsStore interface {
	// Weights returns the six matrices (three weight, three bias) for
	// modelID as a Weights value.
	Weights(modelID int) (*Weights, error)
}

// ChargeModelID is the fixed model id for the charge determinator network.
const ChargeModelID = 1

// MonoisotopeModelID returns the model id for the monoisotope determinator
// network of the given charge state (models 2..11, one per charge 1..10).
func MonoisotopeModelID(charge int) int {
	return charge + 1
}

const layerCount = 3 // three weight matrices + three bias vectors

// layerDims records the shape of each of the 6 matrices for one model, so
// that a flat (row,col)->value table can be reassembled into mat.Dense /
// mat.VecDense values.
type layerDims struct {
	wRows, wCols [layerCount]int
}

// KVWeightsStore is a modernc.org/kv-backed WeightsStore, keyed exactly as
// described in spec.md §6: (model_id, layer_index, row, col) -> value.
// Construction and batched-write discipline follow kortschak/ins's
// internal/store usage in cmd/ins/fragment.go's merge function.
type KVWeightsStore struct {
	db *kv.DB
}

// OpenKVWeightsStore opens (or creates) a weights store at path.
func OpenKVWeightsStore(path string) (*KVWeightsStore, error) {
	opts := &kv.Options{}
	db, err := kv.Open(path, opts)
	if err != nil {
		db, err = kv.Create(path, opts)
		if err != nil {
			return nil, err
		}
	}
	return &KVWeightsStore{db: db}, nil
}

// Close closes the underlying kv database.
func (s *KVWeightsStore) Close() error { return s.db.Close() }

// PutLayer writes one weight matrix (layerIndex 0,2,4 for W1,W2,W3) or bias
// vector (layerIndex 1,3,5 for B1,B2,B3) for modelID. Writes for one model
// should be wrapped in BeginTransaction/Commit by the caller, matching the
// batched-commit convention used elsewhere in this codebase.
func (s *KVWeightsStore) PutLayer(modelID, layerIndex int, rows, cols int, values func(r, c int) float64) error {
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			key := store.MarshalWeightKey(store.WeightKey{
				ModelID: int64(modelID), LayerIndex: int64(layerIndex), Row: int64(r), Col: int64(c),
			})
			err := s.db.Set(key, store.MarshalFloat64(values(r, c)))
			if err != nil {
				return err
			}
		}
	}
	return s.putDims(modelID, layerIndex, rows, cols)
}

func (s *KVWeightsStore) putDims(modelID, layerIndex, rows, cols int) error {
	key := dimsKey(modelID, layerIndex)
	return s.db.Set(key, store.MarshalInt(rows*1_000_000+cols))
}

func dimsKey(modelID, layerIndex int) []byte {
	return []byte(fmt.Sprintf("dims:%d:%d", modelID, layerIndex))
}

// Weights reconstructs the six matrices for modelID by scanning the
// (model_id, layer_index, row, col) key range for each of the three
// weight matrices and three bias vectors.
func (s *KVWeightsStore) Weights(modelID int) (*Weights, error) {
	w := make([]*mat.Dense, 3)
	b := make([]*mat.VecDense, 3)
	for layer := 0; layer < 3; layer++ {
		wRows, wCols, err := s.dims(modelID, layer*2)
		if err != nil {
			return nil, err
		}
		bRows, _, err := s.dims(modelID, layer*2+1)
		if err != nil {
			return nil, err
		}

		wData := make([]float64, wRows*wCols)
		for r := 0; r < wRows; r++ {
			for c := 0; c < wCols; c++ {
				v, err := s.get(modelID, layer*2, r, c)
				if err != nil {
					return nil, err
				}
				wData[r*wCols+c] = v
			}
		}
		w[layer] = mat.NewDense(wRows, wCols, wData)

		bData := make([]float64, bRows)
		for r := 0; r < bRows; r++ {
			v, err := s.get(modelID, layer*2+1, r, 0)
			if err != nil {
				return nil, err
			}
			bData[r] = v
		}
		b[layer] = mat.NewVecDense(bRows, bData)
	}
	return &Weights{W1: w[0], B1: b[0], W2: w[1], B2: b[1], W3: w[2], B3: b[2]}, nil
}

func (s *KVWeightsStore) dims(modelID, layerIndex int) (rows, cols int, err error) {
	v, err := s.db.Get(nil, dimsKey(modelID, layerIndex))
	if err != nil {
		return 0, 0, err
	}
	if v == nil {
		return 0, 0, fmt.Errorf("nn: no weights recorded for model %d layer %d", modelID, layerIndex)
	}
	n := store.UnmarshalInt(v)
	return n / 1_000_000, n % 1_000_000, nil
}

func (s *KVWeightsStore) get(modelID, layerIndex, row, col int) (float64, error) {
	key := store.MarshalWeightKey(store.WeightKey{
		ModelID: int64(modelID), LayerIndex: int64(layerIndex), Row: int64(row), Col: int64(col),
	})
	v, err := s.db.Get(nil, key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("nn: missing weight model=%d layer=%d row=%d col=%d", modelID, layerIndex, row, col)
	}
	return store.UnmarshalFloat64(v), nil
}

// PathFor returns the conventional weights database path under dir.
func PathFor(dir string) string {
	return filepath.Join(dir, "weights.db")
}
