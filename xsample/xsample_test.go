package xsample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/msfeature/model"
)

func feat(mass, apex, maxIntensity float64) model.Feature {
	return model.Feature{
		XICStartRT:     apex - 0.1,
		XICEndRT:       apex + 0.1,
		ApexRT:         apex,
		MWMonoisotopic: mass,
		MaxIntensity:   maxIntensity,
	}
}

func TestCollateGroupsWithinPPMAndTime(t *testing.T) {
	members := []Member{
		{Feature: feat(1200.0001, 10.0, 100), SampleID: "s1", RTWarped: 10.0},
		{Feature: feat(1200.0002, 10.01, 200), SampleID: "s2", RTWarped: 10.01},
		{Feature: feat(1200.0000, 10.02, 150), SampleID: "s3", RTWarped: 10.02},
		{Feature: feat(3000.0, 10.0, 50), SampleID: "s1", RTWarped: 10.0}, // different mass, own group
	}
	masters := Collate(members, 15, 0.08, true)
	require.NotEmpty(t, masters)

	byMaster := map[int][]model.MasterFeature{}
	for _, m := range masters {
		byMaster[m.MasterID] = append(byMaster[m.MasterID], m)
	}
	assert.Equal(t, 2, len(byMaster))

	var threeMemberGroupFound bool
	for _, group := range byMaster {
		if len(group) == 3 {
			threeMemberGroupFound = true
			samples := map[string]bool{}
			for _, m := range group {
				samples[m.SampleID] = true
			}
			assert.Len(t, samples, len(group), "dedup should leave exactly one member per sample")
		}
	}
	assert.True(t, threeMemberGroupFound)
}

func TestCollateSeparatesDistantTime(t *testing.T) {
	members := []Member{
		{Feature: feat(1200.0, 1.0, 100), SampleID: "s1", RTWarped: 1.0},
		{Feature: feat(1200.0, 20.0, 100), SampleID: "s2", RTWarped: 20.0},
	}
	masters := Collate(members, 15, 0.08, false)
	ids := map[int]bool{}
	for _, m := range masters {
		ids[m.MasterID] = true
	}
	assert.Len(t, ids, 2)
}

func TestNeighborsTieBreakOrder(t *testing.T) {
	members := []Member{
		{Feature: feat(1200.0, 10.0, 100), SampleID: "s0", RTWarped: 10.0},
		{Feature: feat(1200.0, 10.05, 100), SampleID: "zzz", RTWarped: 10.05},
		{Feature: feat(1200.0, 10.05, 100), SampleID: "aaa", RTWarped: 10.05},
	}
	idx := Neighbors(members, 0, 15, 0.08)
	require.Len(t, idx, 2)
	assert.Equal(t, "aaa", members[idx[0]].SampleID)
}
