// Package xsample implements the Cross-Sample Collator (component K):
// grouping per-sample Features into Master Features by ppm-mass and
// warped-retention-time proximity.
package xsample

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kortschak/msfeature/model"
)

// massScale fixes the precision of the mass axis used by the interval
// tree (biogo/store/interval.IntTree only indexes integers), matched to
// ppm-level mass accuracy at typical peptide masses.
const massScale = 1e6

// Member is one sample's Feature being considered for cross-sample
// grouping, carrying its warped apex RT (warp.Warp.Map(ApexRT)) and
// originating sample id.
type Member struct {
	model.Feature
	SampleID string
	RTWarped float64
}

// Collate groups members into MasterFeatures by the ordered greedy
// procedure of spec.md §4.K step 3: features are visited in descending
// max-intensity order (ties broken toward the lower original index for
// determinism); each feature searches a ppm-mass × warped-time
// neighborhood (Neighbors) for already-assigned features and, if any
// exist, joins the single best tie-broken match's master feature;
// otherwise it starts a new one. Unlike a full pairwise union-find over
// every match, a feature only ever attaches to one specific already-placed
// neighbor, so two features that are not themselves within tolerance never
// end up in the same master feature purely through a third feature they
// both happen to be near. dedup keeps, for each sample id repeated within a
// group, only the member with the highest MaxIntensity, so that the
// post-de-duplication invariant |{sample_id}| == |members| holds.
func Collate(members []Member, ppm, maxTimeToleranceWarped float64, dedup bool) []model.MasterFeature {
	if len(members) == 0 {
		return nil
	}

	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if members[ia].MaxIntensity != members[ib].MaxIntensity {
			return members[ia].MaxIntensity > members[ib].MaxIntensity
		}
		return ia < ib
	})

	tree := buildTree(members)
	masterOf := make([]int, len(members))
	assigned := make([]bool, len(members))
	nextMaster := 0
	for _, i := range order {
		joined := false
		for _, j := range neighborsWithTree(tree, members, i, ppm, maxTimeToleranceWarped) {
			if !assigned[j] {
				continue
			}
			masterOf[i] = masterOf[j]
			joined = true
			break
		}
		if !joined {
			masterOf[i] = nextMaster
			nextMaster++
		}
		assigned[i] = true
	}

	groups := make([][]int, nextMaster)
	for i := range members {
		groups[masterOf[i]] = append(groups[masterOf[i]], i)
	}

	var out []model.MasterFeature
	for masterID, idxs := range groups {
		group := make([]Member, len(idxs))
		for i, idx := range idxs {
			group[i] = members[idx]
		}
		if dedup {
			group = dedupBySample(group)
		}
		for _, m := range group {
			out = append(out, model.MasterFeature{
				Feature:        m.Feature,
				SampleID:       m.SampleID,
				RTWarped:       m.RTWarped,
				XICStartWarped: m.RTWarped - (m.ApexRT - m.XICStartRT),
				XICEndWarped:   m.RTWarped + (m.XICEndRT - m.ApexRT),
				MasterID:       masterID,
			})
		}
	}
	return out
}

// withinTolerance is the acceptance gate on warped-time distance only. The
// (|Δt_warped|, |Δmass|, sample_id) tie-break ordering from spec.md §9 is
// applied by the caller when ranking candidate neighbors, see Neighbors.
func withinTolerance(a, b Member, maxTimeToleranceWarped float64) bool {
	dt := a.RTWarped - b.RTWarped
	if dt < 0 {
		dt = -dt
	}
	return dt <= maxTimeToleranceWarped
}

// Neighbors returns the indices of members within ppm-mass and warped-RT
// tolerance of members[i], ordered by the spec.md §9 tie-break:
// ascending (|Δt_warped|, |Δmass|, sample_id).
func Neighbors(members []Member, i int, ppm, maxTimeToleranceWarped float64) []int {
	return neighborsWithTree(buildTree(members), members, i, ppm, maxTimeToleranceWarped)
}

// neighborsWithTree is Neighbors against a tree already built for members,
// letting Collate query every member's neighborhood without rebuilding the
// interval tree on every call.
func neighborsWithTree(tree *interval.IntTree, members []Member, i int, ppm, maxTimeToleranceWarped float64) []int {
	lo, hi := ppmRange(members[i].MWMonoisotopic, ppm)
	q := massInterval{lo: toFixed(lo), hi: toFixed(hi)}
	var idx []int
	for _, h := range tree.Get(q) {
		j := int(h.(massInterval).id)
		if j == i || !withinTolerance(members[i], members[j], maxTimeToleranceWarped) {
			continue
		}
		idx = append(idx, j)
	}
	sort.Slice(idx, func(a, b int) bool {
		ja, jb := idx[a], idx[b]
		dtA, dtB := absf(members[i].RTWarped-members[ja].RTWarped), absf(members[i].RTWarped-members[jb].RTWarped)
		if dtA != dtB {
			return dtA < dtB
		}
		dmA, dmB := absf(members[i].MWMonoisotopic-members[ja].MWMonoisotopic), absf(members[i].MWMonoisotopic-members[jb].MWMonoisotopic)
		if dmA != dmB {
			return dmA < dmB
		}
		return members[ja].SampleID < members[jb].SampleID
	})
	return idx
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func dedupBySample(group []Member) []Member {
	best := map[string]Member{}
	for _, m := range group {
		cur, ok := best[m.SampleID]
		if !ok || m.MaxIntensity > cur.MaxIntensity {
			best[m.SampleID] = m
		}
	}
	out := make([]Member, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SampleID < out[j].SampleID })
	return out
}

func ppmRange(mass, ppm float64) (lo, hi float64) {
	delta := mass * ppm / 1e6
	return mass - delta, mass + delta
}

func toFixed(v float64) int { return int(v * massScale) }

func buildTree(members []Member) *interval.IntTree {
	var tree interval.IntTree
	for i, m := range members {
		iv := massInterval{id: uintptr(i), lo: toFixed(m.MWMonoisotopic), hi: toFixed(m.MWMonoisotopic)}
		if err := tree.Insert(iv, true); err != nil {
			panic(fmt.Sprint(err))
		}
	}
	tree.AdjustRanges()
	return &tree
}

// massInterval is a point interval on the fixed-point mass axis used to
// query the tree with a ppm-window range, mirroring the teacher's
// subjectInterval Overlap/Range/ID trio (cmd/ins/main.go's cullContained).
type massInterval struct {
	id     uintptr
	lo, hi int
}

func (i massInterval) Overlap(b interval.IntRange) bool {
	return b.Start <= i.hi && i.lo <= b.End
}
func (i massInterval) ID() uintptr { return i.id }
func (i massInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.lo, End: i.hi}
}

// DotGraph renders master features as connected components of a
// similarity graph for diagnostic export (cmd/auditdb -dot), in the same
// style as cmd/cmpint's nameGraph/dot.Marshal.
func DotGraph(masters []model.MasterFeature) (graph.Graph, error) {
	g := simple.NewUndirectedGraph()
	nodeOf := map[string]graph.Node{}
	node := func(id string) graph.Node {
		if n, ok := nodeOf[id]; ok {
			return n
		}
		n := namedNode{id: int64(len(nodeOf)), name: id}
		nodeOf[id] = n
		g.AddNode(n)
		return n
	}

	byMaster := map[int][]model.MasterFeature{}
	for _, m := range masters {
		byMaster[m.MasterID] = append(byMaster[m.MasterID], m)
	}
	for _, group := range byMaster {
		for i := 1; i < len(group); i++ {
			a := node(fmt.Sprintf("%s:%.4f", group[0].SampleID, group[0].MWMonoisotopic))
			b := node(fmt.Sprintf("%s:%.4f", group[i].SampleID, group[i].MWMonoisotopic))
			if a.ID() != b.ID() {
				g.SetEdge(g.NewEdge(a, b))
			}
		}
	}
	return g, nil
}

// MarshalDot renders g using the same gonum/graph/encoding/dot path the
// teacher's cmpint command uses.
func MarshalDot(g graph.Graph) ([]byte, error) {
	return dot.Marshal(g, "masterfeatures", "", "  ")
}

type namedNode struct {
	id   int64
	name string
}

func (n namedNode) ID() int64     { return n.id }
func (n namedNode) DOTID() string { return n.name }
