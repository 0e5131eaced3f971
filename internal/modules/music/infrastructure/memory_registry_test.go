package infrastructure

import (
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

func TestMemoryRegistry_GetOrCreate(t *testing.T) {
	registry := NewMemoryRegistry()
	guildID := snowflake.ID(123)

	// Get should return nil if session doesn't exist
	if registry.Get(guildID) != nil {
		t.Fatal("expected nil for non-existent session")
	}

	session := registry.GetOrCreate(guildID)
	if session == nil {
		t.Fatal("expected a session to be created")
	}
	if session.GuildID() != guildID {
		t.Errorf("expected guild %d, got %d", guildID, session.GuildID())
	}

	// GetOrCreate again should return the same instance
	if registry.GetOrCreate(guildID) != session {
		t.Error("expected the same session instance")
	}
	if registry.Get(guildID) != session {
		t.Error("expected Get to return the created session")
	}

	// Different guild should return nil
	if registry.Get(snowflake.ID(456)) != nil {
		t.Error("expected nil for different guild")
	}
}

func TestMemoryRegistry_Delete(t *testing.T) {
	registry := NewMemoryRegistry()
	guildID := snowflake.ID(123)

	registry.GetOrCreate(guildID)
	registry.Delete(guildID)

	if registry.Get(guildID) != nil {
		t.Error("expected nil after delete")
	}

	// Deleting a missing session is a no-op
	registry.Delete(guildID)
}

func TestMemoryRegistry_Count(t *testing.T) {
	registry := NewMemoryRegistry()

	if registry.Count() != 0 {
		t.Errorf("expected count 0, got %d", registry.Count())
	}

	registry.GetOrCreate(snowflake.ID(1))
	registry.GetOrCreate(snowflake.ID(2))
	if registry.Count() != 2 {
		t.Errorf("expected count 2, got %d", registry.Count())
	}

	registry.Delete(snowflake.ID(1))
	if registry.Count() != 1 {
		t.Errorf("expected count 1 after delete, got %d", registry.Count())
	}
}

func TestMemoryRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewMemoryRegistry()
	var wg sync.WaitGroup

	// Concurrent creates for different guilds
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			registry.GetOrCreate(snowflake.ID(id))
		}(i)
	}

	wg.Wait()

	if registry.Count() != 100 {
		t.Errorf("expected 100 sessions, got %d", registry.Count())
	}

	// Concurrent gets
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if registry.Get(snowflake.ID(id)) == nil {
				t.Errorf("expected non-nil session for guild %d", id)
			}
		}(i)
	}

	wg.Wait()
}
