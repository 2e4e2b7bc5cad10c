package relationship

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIsSelfLabel(t *testing.T) {
	require.True(t, IsSelfLabel("Self"))
	require.True(t, IsSelfLabel("self"))
	require.True(t, IsSelfLabel("SELF"))
	require.True(t, IsSelfLabel("  self  "))
	require.False(t, IsSelfLabel("Self-Assessment"))
	require.False(t, IsSelfLabel("Manager"))
	require.False(t, IsSelfLabel(""))
}

func TestReactivatedPreservesCreatedAt(t *testing.T) {
	origin := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	edge := Hydrate(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "Peer", false, origin, origin)

	revived := edge.Reactivated("Manager")
	require.True(t, revived.IsActive())
	require.Equal(t, "Manager", revived.Label())
	require.Equal(t, origin, revived.CreatedAt())
	require.Equal(t, edge.ID(), revived.ID())
}

func TestNewTrimsLabel(t *testing.T) {
	edge := New(uuid.New(), uuid.New(), uuid.New(), "  Peer ")
	require.Equal(t, "Peer", edge.Label())
	require.True(t, edge.IsActive())
	require.False(t, edge.IsSelf())
}
