package arena

import (
	"strings"
	"sync"
)

// Registry is the process-local index of active rooms, keyed by match id and
// by short join code. It is the single source of truth for live match state:
// at most one room resolves for a given id or code, and after finalize
// neither resolves.
//
// Sharding note: all events for a match must reach the process that owns its
// room. Running more than one instance requires sticky routing upstream;
// the registry itself is deliberately single-process.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room  // match id -> room
	codes map[string]string // join code -> match id
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		codes: make(map[string]string),
	}
}

// Register indexes a room under its match id and join code. Re-registering
// an id drops the previous room's code key so it cannot dangle.
func (g *Registry) Register(room *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.rooms[room.MatchID]; ok {
		delete(g.codes, old.JoinCode)
	}
	g.rooms[room.MatchID] = room
	g.codes[room.JoinCode] = room.MatchID
}

// CodeTaken reports whether a join code is already bound to a live room.
func (g *Registry) CodeTaken(code string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.codes[code]
	return ok
}

// Resolve finds a room for a client-supplied identifier. The lookup chain is
// ordered and each strategy is tried in turn:
//
//  1. exact match id
//  2. exact join code key
//  3. linear scan for a room whose code equals the identifier case-insensitively
//  4. prefix match of the identifier against stored match ids (clients
//     sometimes supply a truncated code)
//
// Returns nil when nothing matches.
func (g *Registry) Resolve(identifier string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if room, ok := g.rooms[identifier]; ok {
		return room
	}

	if id, ok := g.codes[identifier]; ok {
		return g.rooms[id]
	}

	for _, room := range g.rooms {
		if strings.EqualFold(room.JoinCode, identifier) {
			return room
		}
	}

	for id, room := range g.rooms {
		if strings.HasPrefix(id, identifier) {
			return room
		}
	}

	return nil
}

// Remove drops a room from both indexes. Its id and code become unresolvable.
func (g *Registry) Remove(matchID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[matchID]; ok {
		delete(g.codes, room.JoinCode)
		delete(g.rooms, matchID)
	}
}

// Rooms returns a snapshot of all live rooms.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
