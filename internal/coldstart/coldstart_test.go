package coldstart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vocab-amas/internal/types"
)

func TestDerivePhaseBoundaries(t *testing.T) {
	assert.Equal(t, types.PhaseClassify, DerivePhase(0))
	assert.Equal(t, types.PhaseClassify, DerivePhase(4))
	assert.Equal(t, types.PhaseExplore, DerivePhase(5))
	assert.Equal(t, types.PhaseExplore, DerivePhase(7))
	assert.Equal(t, types.PhaseNormal, DerivePhase(8))
	assert.Equal(t, types.PhaseNormal, DerivePhase(1000))
}

func TestManagerFiresTransitionOnFirstSight(t *testing.T) {
	m := NewManager()
	phase, tr := m.Phase("u1", 0)
	assert.Equal(t, types.PhaseClassify, phase)
	if assert.NotNil(t, tr) {
		assert.Equal(t, types.ColdStartPhase(""), tr.From)
		assert.Equal(t, types.PhaseClassify, tr.To)
	}
}

func TestManagerSuppressesRepeatedPhase(t *testing.T) {
	m := NewManager()
	m.Phase("u1", 2)
	_, tr := m.Phase("u1", 3)
	assert.Nil(t, tr)
}

func TestManagerFiresTransitionOnPhaseChange(t *testing.T) {
	m := NewManager()
	m.Phase("u1", 2)
	phase, tr := m.Phase("u1", 6)
	assert.Equal(t, types.PhaseExplore, phase)
	if assert.NotNil(t, tr) {
		assert.Equal(t, types.PhaseClassify, tr.From)
		assert.Equal(t, types.PhaseExplore, tr.To)
	}
}

func TestManagerPeekAndForget(t *testing.T) {
	m := NewManager()
	_, ok := m.Peek("ghost")
	assert.False(t, ok)

	m.Phase("u1", 1)
	phase, ok := m.Peek("u1")
	assert.True(t, ok)
	assert.Equal(t, types.PhaseClassify, phase)

	m.Forget("u1")
	_, ok = m.Peek("u1")
	assert.False(t, ok)
}

func TestGateForClassifyOnlyConsultsHeuristic(t *testing.T) {
	g := GateFor(types.PhaseClassify)
	assert.Equal(t, []types.MemberID{types.MemberHeuristic}, g.ConsultMembers)
	assert.False(t, g.UpdatePosteriors)
	assert.Equal(t, types.SourceColdStart, g.Source)
}

func TestGateForExploreConsultsAllWithElevatedEpsilon(t *testing.T) {
	g := GateFor(types.PhaseExplore)
	assert.Len(t, g.ConsultMembers, 4)
	assert.True(t, g.UpdatePosteriors)
	assert.True(t, g.ElevatedEpsilon)
	assert.Equal(t, types.SourceEnsemble, g.Source)
}

func TestGateForNormalConsultsAllWithoutElevatedEpsilon(t *testing.T) {
	g := GateFor(types.PhaseNormal)
	assert.Len(t, g.ConsultMembers, 4)
	assert.False(t, g.ElevatedEpsilon)
}
