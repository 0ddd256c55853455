package runtime

import (
	"testing"

	"stranger-chat/domain"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.NewConnID()
	profile := domain.Profile{DisplayName: "alice", Gender: domain.Female}

	// Given no user is registered
	_, ok := registry.Lookup(id)
	req.False(ok)
	req.Zero(registry.Len())

	// When a profile is registered
	registry.Register(id, profile)

	// Then it can be resolved
	got, ok := registry.Lookup(id)
	req.True(ok)
	req.Equal(profile, got)
	req.Equal(1, registry.Len())
}

func TestRegistry_Register_Overwrites(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.NewConnID()

	// When the same connection registers twice
	registry.Register(id, domain.Profile{DisplayName: "alice", Gender: domain.Female})
	registry.Register(id, domain.Profile{DisplayName: "alicia", Gender: domain.Female})

	// Then only the last profile is kept
	got, _ := registry.Lookup(id)
	req.Equal("alicia", got.DisplayName)
	req.Equal(1, registry.Len())
}

func TestRegistry_Unregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id1, id2 := domain.NewConnID(), domain.NewConnID()
	registry.Register(id1, domain.Profile{DisplayName: "alice", Gender: domain.Female})
	registry.Register(id2, domain.Profile{DisplayName: "bob", Gender: domain.Male})

	// When a connection is unregistered
	registry.Unregister(id1)

	// Then only the other one is left
	_, ok := registry.Lookup(id1)
	req.False(ok)
	_, ok = registry.Lookup(id2)
	req.True(ok)
	req.Equal(1, registry.Len())
}
