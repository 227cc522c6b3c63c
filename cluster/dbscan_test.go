package cluster

import "testing"

func TestDBSCANTwoClustersAndNoise(t *testing.T) {
	points := []Point2{
		{0, 0}, {0.5, 0}, {1, 0}, // cluster A
		{100, 0}, {100.5, 0}, {101, 0}, // cluster B
		{1000, 0}, // noise
	}
	labels := DBSCAN(points, 1.0, 2)

	if labels[len(labels)-1] != Noise {
		t.Errorf("isolated point got label %d, want Noise", labels[len(labels)-1])
	}
	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Errorf("cluster A not uniformly labeled: %v", labels[:3])
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Errorf("cluster B not uniformly labeled: %v", labels[3:6])
	}
	if labels[0] == labels[3] {
		t.Errorf("clusters A and B got the same label")
	}
}

func TestDBSCANAllNoiseBelowMinPts(t *testing.T) {
	points := []Point2{{0, 0}, {10, 0}, {20, 0}}
	labels := DBSCAN(points, 1.0, 2)
	for i, l := range labels {
		if l != Noise {
			t.Errorf("point %d got label %d, want Noise (isolated)", i, l)
		}
	}
}
