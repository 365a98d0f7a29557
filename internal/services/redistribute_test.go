package services

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-route-service/internal/domain"
)

func TestMinClusterSize(t *testing.T) {
	assert.Equal(t, 2, MinClusterSize(1))
	assert.Equal(t, 2, MinClusterSize(5))
	assert.Equal(t, 3, MinClusterSize(8))
	assert.Equal(t, 4, MinClusterSize(10))
}

func TestRedistributeMergesSmallCluster(t *testing.T) {
	stops := stopsEast(0, 50, 100, 150)
	p := ClusterParams{MaxWalkDistanceMeters: 100, PreferredSize: 3, WalkingSpeedKmh: 5}

	clusters, err := BuildClusters(stops, p)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	merged, err := Redistribute(clusters, stops, p)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "cluster-1", merged[0].ID)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, merged[0].MemberStopIDs)
	assert.ElementsMatch(t, merged[0].MemberStopIDs, merged[0].OrderedStopIDs)
	assert.Greater(t, merged[0].WalkingDistanceMeters, clusters[0].WalkingDistanceMeters)
}

func TestRedistributeRefusesOutOfReachMember(t *testing.T) {
	// Eight stops fill the first cluster; the second holds one stop in reach and one beyond it.
	stops := stopsEast(0, 50, 100, 150, 200, 250, 300, 350, 400, 480)
	p := ClusterParams{MaxWalkDistanceMeters: 100, PreferredSize: 8, WalkingSpeedKmh: 5}

	clusters, err := BuildClusters(stops, p)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	require.Equal(t, 2, clusters[1].Size())

	out, err := Redistribute(clusters, stops, p)
	require.NoError(t, err)
	assert.Equal(t, clusters, out)
}

func TestRedistributeRespectsMergedSizeCap(t *testing.T) {
	stops := stopsEast(0, 10, 20, 30, 40)
	p := ClusterParams{MaxWalkDistanceMeters: 100, PreferredSize: 2, WalkingSpeedKmh: 5}

	a, err := newCluster("cluster-1", stops[:3], 5)
	require.NoError(t, err)
	b, err := newCluster("cluster-2", stops[3:4], 5)
	require.NoError(t, err)
	c, err := newCluster("cluster-3", stops[4:], 5)
	require.NoError(t, err)

	// 3 + 1 exceeds 1.5 * 2, and small clusters never absorb each other.
	out, err := Redistribute([]domain.Cluster{a, b, c}, stops, p)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestRedistributePrefersSmallerTarget(t *testing.T) {
	// Target x holds 4 stops, target y holds 3; the small cluster is equally near both.
	x := []domain.Stop{
		locatedStop("x1", offset(origin, -60, 0)),
		locatedStop("x2", offset(origin, -70, 0)),
		locatedStop("x3", offset(origin, -80, 0)),
		locatedStop("x4", offset(origin, -90, 0)),
	}
	y := []domain.Stop{
		locatedStop("y1", offset(origin, 60, 0)),
		locatedStop("y2", offset(origin, 70, 0)),
		locatedStop("y3", offset(origin, 80, 0)),
	}
	small := []domain.Stop{locatedStop("s1", origin)}
	all := append(append(append([]domain.Stop{}, x...), y...), small...)
	p := ClusterParams{MaxWalkDistanceMeters: 100, PreferredSize: 5, WalkingSpeedKmh: 5}

	cx, err := newCluster("x", x, 5)
	require.NoError(t, err)
	cy, err := newCluster("y", y, 5)
	require.NoError(t, err)
	cs, err := newCluster("s", small, 5)
	require.NoError(t, err)

	out, err := Redistribute([]domain.Cluster{cx, cy, cs}, all, p)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "x", out[0].ID)
	assert.Equal(t, 4, out[0].Size())
	assert.Equal(t, "y", out[1].ID)
	assert.Contains(t, out[1].MemberStopIDs, "s1")
}

func TestRedistributeNeverAddsClusters(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for round := range 10 {
		n := 10 + rng.Intn(40)
		stops := make([]domain.Stop, n)
		for i := range stops {
			stops[i] = locatedStop("s"+strconv.Itoa(i), offset(origin, rng.Float64()*2000, rng.Float64()*2000))
		}
		p := ClusterParams{MaxWalkDistanceMeters: 300, PreferredSize: 2 + rng.Intn(8), WalkingSpeedKmh: 5}

		clusters, err := BuildClusters(stops, p)
		require.NoError(t, err)
		out, err := Redistribute(clusters, stops, p)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(out), len(clusters), "round %d", round)
		total := 0
		for _, c := range out {
			total += c.Size()
			assert.LessOrEqual(t, float64(c.Size()), float64(p.PreferredSize)*1.5, "round %d", round)
		}
		assert.Equal(t, n, total, "round %d", round)
	}
}

func TestRedistributeRejectsUnknownStop(t *testing.T) {
	c := domain.Cluster{ID: "c", MemberStopIDs: []string{"ghost"}}
	_, err := Redistribute([]domain.Cluster{c}, nil, ClusterParams{PreferredSize: 3})
	assert.Error(t, err)
}
