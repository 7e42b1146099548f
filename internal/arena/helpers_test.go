package arena

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"quizduel/backend/internal/models"
)

// sentEvent is one event captured by a fake session.
type sentEvent struct {
	Event   string
	Payload any
}

type fakeSession struct {
	userID   uint
	username string

	mu     sync.Mutex
	events []sentEvent
}

func newFakeSession(userID uint, username string) *fakeSession {
	return &fakeSession{userID: userID, username: username}
}

func (s *fakeSession) UserID() uint     { return s.userID }
func (s *fakeSession) Username() string { return s.username }

func (s *fakeSession) Send(event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sentEvent{Event: event, Payload: payload})
}

func (s *fakeSession) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (s *fakeSession) last(event string) (sentEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Event == event {
			return s.events[i], true
		}
	}
	return sentEvent{}, false
}

type fakeLobby struct {
	mu     sync.Mutex
	events []sentEvent
}

func (l *fakeLobby) BroadcastLobby(event string, payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, sentEvent{Event: event, Payload: payload})
}

func (l *fakeLobby) count(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// fakeStore is an in-memory Store double.
type fakeStore struct {
	mu         sync.Mutex
	categories map[uint]*models.Category
	questions  map[uint][]models.Question
	matches    map[string]*models.Match
	users      map[uint]*models.User

	saveUserErr map[uint]error // per-user injected failure
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories:  make(map[uint]*models.Category),
		questions:   make(map[uint][]models.Question),
		matches:     make(map[string]*models.Match),
		users:       make(map[uint]*models.User),
		saveUserErr: make(map[uint]error),
	}
}

func (s *fakeStore) addCategory(id uint, name string) {
	cat := &models.Category{Name: name, Active: true}
	cat.ID = id
	s.categories[id] = cat
}

// addQuestions seeds n four-option questions for a category; option "a" is
// always correct.
func (s *fakeStore) addQuestions(categoryID uint, n int) {
	for i := 0; i < n; i++ {
		q := models.Question{
			CategoryID:      categoryID,
			CorrectOptionID: "a",
			Text:            fmt.Sprintf("question %d", i+1),
			Difficulty:      "medium",
			Active:          true,
			Approved:        true,
		}
		q.ID = uint(categoryID*100) + uint(i) + 1
		_ = q.SetOptions([]models.Option{
			{ID: "a", Text: "right"},
			{ID: "b", Text: "wrong"},
			{ID: "c", Text: "wrong"},
			{ID: "d", Text: "wrong"},
		})
		s.questions[categoryID] = append(s.questions[categoryID], q)
	}
}

func (s *fakeStore) addUser(id uint, username string) {
	u := &models.User{Username: username, Rank: "Bronze", Badges: "[]"}
	u.ID = id
	s.users[id] = u
}

func (s *fakeStore) Category(id uint) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cat, nil
}

func (s *fakeStore) SampleQuestions(categoryID uint, n int) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs := s.questions[categoryID]
	if len(qs) > n {
		qs = qs[:n]
	}
	return qs, nil
}

func (s *fakeStore) Match(id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	cp.Players = append([]models.MatchPlayer(nil), m.Players...)
	return &cp, nil
}

func (s *fakeStore) CreateMatch(m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *fakeStore) SaveMatch(m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *fakeStore) User(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) SaveUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveUserErr[u.ID]; err != nil {
		return err
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeStore) user(id uint) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *fakeStore) match(id string) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id]
}

// testConfig shrinks every delay so scenarios run in milliseconds.
func testConfig() Config {
	return Config{
		StartDelay:   10 * time.Millisecond,
		QuestionGap:  10 * time.Millisecond,
		ResultsDelay: 20 * time.Millisecond,
		GracePeriod:  60 * time.Millisecond,
	}
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeStore, *fakeLobby) {
	t.Helper()
	store := newFakeStore()
	store.addCategory(1, "History")
	store.addQuestions(1, 5)
	store.addUser(1, "alice")
	store.addUser(2, "bob")

	lobby := &fakeLobby{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(store, NewRegistry(), lobby, cfg, logger)
	return engine, store, lobby
}

// currentIndex reads the room's current question index under its lock.
func currentIndex(room *Room) int {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.CurrentIndex
}

// createAndJoin runs a match up to the active state and returns the room and
// both sessions.
func createAndJoin(t *testing.T, engine *Engine) (*Room, *fakeSession, *fakeSession) {
	t.Helper()
	alice := newFakeSession(1, "alice")
	bob := newFakeSession(2, "bob")

	room, opErr := engine.CreateMatch(alice, 1, 3, 30)
	if opErr != nil {
		t.Fatalf("CreateMatch failed: %v", opErr)
	}
	if opErr := engine.JoinMatch(bob, room.JoinCode); opErr != nil {
		t.Fatalf("JoinMatch failed: %v", opErr)
	}
	return room, alice, bob
}
