// The auditdb command allows the per-sample kv stores written by
// cmd/msfeature to be inspected. Output is a JSON stream on stdout, one
// object per record, matching cmd/audit-ins-db's approach to the
// equivalent forward/regions/reverse databases in the teacher repo.
//
// With -dot, auditdb instead renders the cross-sample master-feature
// grouping of the database as a Graphviz dot file, in the same style as
// cmd/cmpint's -dot output.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"modernc.org/kv"

	"github.com/kortschak/msfeature/model"
	"github.com/kortschak/msfeature/sink"
	"github.com/kortschak/msfeature/xsample"
)

func main() {
	path := flag.String("db", "", "specify per-sample kv db file to audit (required)")
	dotOut := flag.String("dot", "", "specify a path to write a dot-format master-feature graph instead of JSON")
	ppm := flag.Float64("ppm", 15, "ppm mass tolerance for -dot neighbor grouping")
	timeTol := flag.Float64("time-tolerance", 0.08, "warped-time tolerance (minutes) for -dot neighbor grouping")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := kv.Open(*path, &kv.Options{})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	features, err := scanFeatures(db)
	if err != nil {
		log.Fatal(err)
	}

	if *dotOut != "" {
		if err := writeDot(*dotOut, features, *ppm, *timeTol); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := dumpJSON(db); err != nil {
		log.Fatal(err)
	}
}

// dumpJSON streams every record in db as a JSON object tagged by its key
// prefix (cc, ft, msms, settings), mirroring audit-ins-db's per-line JSON
// stream on stdout.
func dumpJSON(db *kv.DB) error {
	enc := json.NewEncoder(os.Stdout)
	it, err := db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		row, err := decodeRow(k, v)
		if err != nil {
			log.Printf("auditdb: skipping undecodable row: %v", err)
			continue
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
}

func decodeRow(k, v []byte) (interface{}, error) {
	switch {
	case bytes.HasPrefix(k, []byte("cc:")):
		return sink.DecodeChargeCluster(v), nil
	case bytes.HasPrefix(k, []byte("ft:")):
		return sink.DecodeFeature(v), nil
	case bytes.HasPrefix(k, []byte("msms:")):
		return struct {
			Key     string `json:"key"`
			Peptide string `json:"peptide"`
		}{Key: string(k), Peptide: string(v)}, nil
	case bytes.HasPrefix(k, []byte("settings:")):
		return struct {
			Parameter string `json:"parameter"`
			Value     string `json:"value"`
		}{Parameter: strings.TrimPrefix(string(k), "settings:"), Value: string(v)}, nil
	default:
		return nil, fmt.Errorf("unrecognized key prefix: %q", k)
	}
}

func scanFeatures(db *kv.DB) ([]model.Feature, error) {
	var features []model.Feature
	it, err := db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return features, nil
			}
			return nil, err
		}
		if bytes.HasPrefix(k, []byte("ft:")) {
			features = append(features, sink.DecodeFeature(v))
		}
	}
}

func writeDot(path string, features []model.Feature, ppm, timeTol float64) error {
	members := make([]xsample.Member, len(features))
	for i, f := range features {
		members[i] = xsample.Member{Feature: f, SampleID: "db", RTWarped: f.ApexRT}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].MWMonoisotopic < members[j].MWMonoisotopic })

	masters := xsample.Collate(members, ppm, timeTol, false)
	g, err := xsample.DotGraph(masters)
	if err != nil {
		return err
	}
	b, err := xsample.MarshalDot(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o664)
}
