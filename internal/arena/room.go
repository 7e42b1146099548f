package arena

import (
	"sort"
	"sync"
	"time"

	"quizduel/backend/internal/models"
)

// QuestionSnapshot is the in-room copy of a question, taken at match
// creation so later edits to the bank cannot affect a running match.
type QuestionSnapshot struct {
	ID              uint
	Text            string
	Options         []models.Option
	CorrectOptionID string
	Difficulty      string
}

// AnswerRecord is one submitted answer, kept only until the question's
// results are broadcast.
type AnswerRecord struct {
	QuestionIndex int
	OptionID      string
	Correct       bool
}

// PlayerState is a player's live state within a room.
type PlayerState struct {
	UserID       uint
	Username     string
	Session      Session
	Score        int
	Correct      int // questions answered correctly, across the whole match
	Answered     bool
	Disconnected bool
	FinishReady  bool
	Answers      []AnswerRecord
}

// Room is the ephemeral authoritative state for one duel. All mutation goes
// through the engine under the room mutex; a client event or timer firing is
// processed to completion before the next one for the same room, which is
// what keeps the state machine race-free.
type Room struct {
	mu sync.Mutex

	MatchID       string
	JoinCode      string
	CategoryID    uint
	CategoryName  string
	QuestionCount int
	TimeLimit     time.Duration
	Questions     []QuestionSnapshot
	Players       []*PlayerState // join order, at most two
	CreatedAt     time.Time

	State             models.MatchState
	CurrentIndex      int
	QuestionStartedAt time.Time

	// resultsShown guards the exactly-one results broadcast per index;
	// set by whichever of both-answered or deadline fires first.
	resultsShown bool
	finalized    bool

	// Timer generations. Arming a timer captures the current generation;
	// any superseding transition bumps it, so a stale firing is a no-op
	// even before the state recheck.
	questionGen int
	graceGens   map[uint]int
}

func newRoom(matchID, joinCode string, cat *models.Category, questions []QuestionSnapshot, timeLimit time.Duration) *Room {
	return &Room{
		MatchID:       matchID,
		JoinCode:      joinCode,
		CategoryID:    cat.ID,
		CategoryName:  cat.Name,
		QuestionCount: len(questions),
		TimeLimit:     timeLimit,
		Questions:     questions,
		State:         models.MatchWaiting,
		CreatedAt:     time.Now(),
		CurrentIndex:  -1,
		graceGens:     make(map[uint]int),
	}
}

// player returns the state for userID, or nil.
func (r *Room) player(userID uint) *PlayerState {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// opponent returns the other player's state, or nil in a waiting room.
func (r *Room) opponent(userID uint) *PlayerState {
	for _, p := range r.Players {
		if p.UserID != userID {
			return p
		}
	}
	return nil
}

func (r *Room) bothAnswered() bool {
	if len(r.Players) < 2 {
		return false
	}
	for _, p := range r.Players {
		if !p.Answered {
			return false
		}
	}
	return true
}

func (r *Room) bothFinishReady() bool {
	if len(r.Players) < 2 {
		return false
	}
	for _, p := range r.Players {
		if !p.FinishReady {
			return false
		}
	}
	return true
}

// sendAll delivers an event to every connected player in the room.
func (r *Room) sendAll(event string, payload any) {
	for _, p := range r.Players {
		if p.Session != nil {
			p.Session.Send(event, payload)
		}
	}
}

// sendOpponent delivers an event to everyone except userID.
func (r *Room) sendOpponent(userID uint, event string, payload any) {
	if opp := r.opponent(userID); opp != nil && opp.Session != nil {
		opp.Session.Send(event, payload)
	}
}

// scores returns the running score per user id.
func (r *Room) scores() map[uint]int {
	out := make(map[uint]int, len(r.Players))
	for _, p := range r.Players {
		out[p.UserID] = p.Score
	}
	return out
}

// scoreboard ranks this match's participants by score, descending. Ties
// share the score but rank by join order so the output is deterministic.
func (r *Room) scoreboard() []ScoreEntry {
	entries := make([]ScoreEntry, 0, len(r.Players))
	for _, p := range r.Players {
		entries = append(entries, ScoreEntry{
			UserID:   p.UserID,
			Username: p.Username,
			Score:    p.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// questionPayload builds the question-display body for index i.
func (r *Room) questionPayload(i int) *QuestionPayload {
	if i < 0 || i >= len(r.Questions) {
		return nil
	}
	q := r.Questions[i]
	return &QuestionPayload{
		Index:           i,
		Text:            q.Text,
		Options:         q.Options,
		CorrectOptionID: q.CorrectOptionID,
		TimeLimit:       int(r.TimeLimit.Seconds()),
		Number:          i + 1,
		Total:           len(r.Questions),
	}
}
