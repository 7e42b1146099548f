package arena

import (
	"testing"

	"quizduel/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom(matchID, joinCode string) *Room {
	cat := &models.Category{Name: "History"}
	cat.ID = 1
	return newRoom(matchID, joinCode, cat, nil, 0)
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()
	room := testRoom("a1b2c3d4-0000-0000-0000-000000000000", "A1B2C3")
	reg.Register(room)

	tests := []struct {
		name       string
		identifier string
		found      bool
	}{
		{"exact match id", "a1b2c3d4-0000-0000-0000-000000000000", true},
		{"exact join code", "A1B2C3", true},
		{"case-insensitive join code", "a1b2c3", true},
		{"match id prefix", "a1b2c3d4", true},
		{"unknown identifier", "ZZZZZZ", false},
		{"empty prefix matches nothing meaningful", "nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Resolve(tt.identifier)
			if tt.found {
				require.NotNil(t, got)
				assert.Equal(t, room.MatchID, got.MatchID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestRegistry_ResolveOrder(t *testing.T) {
	reg := NewRegistry()
	// A room whose join code happens to equal another room's id prefix.
	first := testRoom("abcdef12-1111-0000-0000-000000000000", "QQQQQQ")
	second := testRoom("ffff0000-2222-0000-0000-000000000000", "ABCDEF")
	reg.Register(first)
	reg.Register(second)

	// Exact code key wins over id prefix scan.
	got := reg.Resolve("ABCDEF")
	require.NotNil(t, got)
	assert.Equal(t, second.MatchID, got.MatchID)
}

func TestRegistry_RemoveMakesUnresolvable(t *testing.T) {
	reg := NewRegistry()
	room := testRoom("11112222-0000-0000-0000-000000000000", "111122")
	reg.Register(room)
	require.Equal(t, 1, reg.Len())

	reg.Remove(room.MatchID)

	assert.Nil(t, reg.Resolve(room.MatchID))
	assert.Nil(t, reg.Resolve(room.JoinCode))
	assert.Nil(t, reg.Resolve("1111"))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_OneRoomPerID(t *testing.T) {
	reg := NewRegistry()
	a := testRoom("dup-0000", "AAAAAA")
	b := testRoom("dup-0000", "BBBBBB")
	reg.Register(a)
	reg.Register(b)

	assert.Equal(t, 1, reg.Len())
	got := reg.Resolve("dup-0000")
	require.NotNil(t, got)
	assert.Equal(t, "BBBBBB", got.JoinCode)

	// The superseded room's code key is gone, not dangling.
	assert.Nil(t, reg.Resolve("AAAAAA"))
	assert.False(t, reg.CodeTaken("AAAAAA"))
	assert.True(t, reg.CodeTaken("BBBBBB"))
}
