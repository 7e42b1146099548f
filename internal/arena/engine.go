package arena

import (
	"log/slog"
	"strings"
	"time"

	"quizduel/backend/internal/models"

	"github.com/google/uuid"
)

// Validation bounds for match creation.
const (
	MinQuestionCount = 3
	MaxQuestionCount = 20
	MinTimeLimitSec  = 15
	MaxTimeLimitSec  = 300

	DefaultQuestionCount = 5
	DefaultTimeLimitSec  = 30
)

// Config holds the engine's fixed delays. Tests shrink them.
type Config struct {
	StartDelay   time.Duration // second-player join until start-battle
	QuestionGap  time.Duration // start-battle until question 0
	ResultsDelay time.Duration // results display until advance or finalize
	GracePeriod  time.Duration // disconnect until forfeiture
}

// DefaultConfig returns the production delays.
func DefaultConfig() Config {
	return Config{
		StartDelay:   2 * time.Second,
		QuestionGap:  1 * time.Second,
		ResultsDelay: 5 * time.Second,
		GracePeriod:  30 * time.Second,
	}
}

const joinCodeLen = 6

// joinCodeFor derives the short join code from the match id's hex digits,
// sliding one character at a time past any candidate the taken check
// rejects. Two live rooms sharing a 6-hex prefix is rare but would
// otherwise silently remap the code.
func joinCodeFor(matchID string, taken func(string) bool) string {
	hexDigits := strings.ToUpper(strings.ReplaceAll(matchID, "-", ""))
	code := hexDigits[:joinCodeLen]
	for i := 1; i+joinCodeLen <= len(hexDigits) && taken(code); i++ {
		code = hexDigits[i : i+joinCodeLen]
	}
	return code
}

// Engine orchestrates every live duel: creation, joining, question delivery
// and deadlines, answer validation, disconnect grace handling, forfeiture and
// finalization. Per-room mutual exclusion serializes all transitions for a
// match, whether they arrive from the transport or from a timer firing.
// Handlers that span a store call release the room lock around it and
// re-validate room state afterwards; the match may have been finalized by
// another path in the meantime.
type Engine struct {
	store    Store
	registry *Registry
	lobby    LobbyBroadcaster
	cfg      Config
	logger   *slog.Logger
}

// NewEngine wires the orchestration engine.
func NewEngine(store Store, registry *Registry, lobby LobbyBroadcaster, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		registry: registry,
		lobby:    lobby,
		cfg:      cfg,
		logger:   logger,
	}
}

// Registry exposes the room index, mainly for the transport's disconnect scan.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// CreateMatch validates the request, samples the question set, persists the
// match in waiting state and registers the room. questionCount and
// timeLimitSec of zero take the defaults.
func (e *Engine) CreateMatch(sess Session, categoryID uint, questionCount, timeLimitSec int) (*Room, *Error) {
	if questionCount == 0 {
		questionCount = DefaultQuestionCount
	}
	if timeLimitSec == 0 {
		timeLimitSec = DefaultTimeLimitSec
	}
	if questionCount < MinQuestionCount || questionCount > MaxQuestionCount {
		return nil, newError(CodeInvalidQuestionCount, "number of questions must be between %d and %d", MinQuestionCount, MaxQuestionCount)
	}
	if timeLimitSec < MinTimeLimitSec || timeLimitSec > MaxTimeLimitSec {
		return nil, newError(CodeInvalidTimeLimit, "time per question must be between %d and %d seconds", MinTimeLimitSec, MaxTimeLimitSec)
	}

	cat, err := e.store.Category(categoryID)
	if err != nil {
		if err == ErrNotFound {
			return nil, newError(CodeCategoryNotFound, "category %d not found", categoryID)
		}
		return nil, newError(CodePersistenceFailed, "category lookup failed")
	}

	sampled, err := e.store.SampleQuestions(categoryID, questionCount)
	if err != nil {
		return nil, newError(CodePersistenceFailed, "question sampling failed")
	}
	if len(sampled) < questionCount {
		return nil, newError(CodeInsufficientQuestions, "category %q has only %d approved questions, %d requested", cat.Name, len(sampled), questionCount)
	}

	snapshots := make([]QuestionSnapshot, 0, questionCount)
	for _, q := range sampled {
		opts, err := q.OptionList()
		if err != nil {
			return nil, newError(CodeInternal, "question %d has malformed options", q.ID)
		}
		snapshots = append(snapshots, QuestionSnapshot{
			ID:              q.ID,
			Text:            q.Text,
			Options:         opts,
			CorrectOptionID: q.CorrectOptionID,
			Difficulty:      q.Difficulty,
		})
	}

	matchID := uuid.NewString()
	joinCode := joinCodeFor(matchID, e.registry.CodeTaken)

	match := &models.Match{
		ID:         matchID,
		CategoryID: categoryID,
		State:      models.MatchWaiting,
		Players: []models.MatchPlayer{{
			MatchID:  matchID,
			UserID:   sess.UserID(),
			Username: sess.Username(),
		}},
	}
	ids := make([]uint, len(snapshots))
	for i, s := range snapshots {
		ids[i] = s.ID
	}
	if err := match.SetQuestionIDs(ids); err != nil {
		return nil, newError(CodeInternal, "failed to encode question list")
	}
	if err := e.store.CreateMatch(match); err != nil {
		return nil, newError(CodePersistenceFailed, "failed to create match")
	}

	room := newRoom(matchID, joinCode, cat, snapshots, time.Duration(timeLimitSec)*time.Second)
	room.Players = append(room.Players, &PlayerState{
		UserID:   sess.UserID(),
		Username: sess.Username(),
		Session:  sess,
	})
	e.registry.Register(room)

	e.logger.Info("match created",
		"match_id", matchID,
		"join_code", joinCode,
		"category", cat.Name,
		"questions", questionCount,
		"time_limit_sec", timeLimitSec,
		"user_id", sess.UserID())

	created := map[string]any{
		"matchId":        matchID,
		"joinCode":       joinCode,
		"category":       cat.Name,
		"totalQuestions": questionCount,
		"timeLimit":      timeLimitSec,
	}
	sess.Send(EventMatchCreated, created)
	if e.lobby != nil {
		e.lobby.BroadcastLobby(EventMatchAvailable, created)
	}
	return room, nil
}

// JoinMatch adds the second player to a waiting room resolved from a match
// id or join code, transitions match and room to active, and schedules the
// battle start.
func (e *Engine) JoinMatch(sess Session, identifier string) *Error {
	room := e.registry.Resolve(identifier)
	if room == nil {
		return newError(CodeMatchNotFound, "no match found for %q", identifier)
	}

	// Guard against store/memory skew: the persisted match must also still
	// be waiting. Store read happens outside the room lock.
	if persisted, err := e.store.Match(room.MatchID); err == nil && persisted.State != models.MatchWaiting {
		return newError(CodeMatchUnavailable, "match already started or finished")
	}

	room.mu.Lock()
	if room.finalized || room.State != models.MatchWaiting {
		room.mu.Unlock()
		return newError(CodeMatchUnavailable, "match already started or finished")
	}
	if len(room.Players) >= 2 {
		room.mu.Unlock()
		return newError(CodeMatchUnavailable, "match already has two players")
	}
	if room.player(sess.UserID()) != nil {
		room.mu.Unlock()
		return newError(CodeMatchUnavailable, "you are already in this match")
	}

	room.Players = append(room.Players, &PlayerState{
		UserID:   sess.UserID(),
		Username: sess.Username(),
		Session:  sess,
	})
	room.State = models.MatchActive

	readyPayload := map[string]any{
		"matchId":        room.MatchID,
		"category":       room.CategoryName,
		"totalQuestions": room.QuestionCount,
		"timeLimit":      int(room.TimeLimit.Seconds()),
		"players":        room.scoreboard(),
	}
	room.sendAll(EventMatchReady, readyPayload)
	sess.Send(EventMatchJoined, readyPayload)
	room.mu.Unlock()

	// Memory is authoritative; a failed write here leaves the store behind
	// until finalize catches it up, so log and carry on.
	now := time.Now()
	if err := e.persistActivation(room, sess, now); err != nil {
		e.logger.Warn("failed to persist match activation", "match_id", room.MatchID, "error", err)
	}

	if e.lobby != nil {
		e.lobby.BroadcastLobby(EventMatchRemovedFromLobby, map[string]any{"matchId": room.MatchID})
	}
	e.logger.Info("match joined", "match_id", room.MatchID, "user_id", sess.UserID())

	time.AfterFunc(e.cfg.StartDelay, func() { e.startBattle(room) })
	return nil
}

func (e *Engine) persistActivation(room *Room, joiner Session, startedAt time.Time) error {
	match, err := e.store.Match(room.MatchID)
	if err != nil {
		return err
	}
	match.State = models.MatchActive
	match.StartedAt = &startedAt
	match.Players = append(match.Players, models.MatchPlayer{
		MatchID:  room.MatchID,
		UserID:   joiner.UserID(),
		Username: joiner.Username(),
	})
	return e.store.SaveMatch(match)
}

// startBattle broadcasts the battle summary and schedules question 0.
func (e *Engine) startBattle(room *Room) {
	room.mu.Lock()
	if room.finalized || room.State != models.MatchActive {
		room.mu.Unlock()
		return
	}
	room.sendAll(EventStartBattle, map[string]any{
		"matchId":         room.MatchID,
		"category":        room.CategoryName,
		"totalQuestions":  room.QuestionCount,
		"timePerQuestion": int(room.TimeLimit.Seconds()),
	})
	room.mu.Unlock()

	time.AfterFunc(e.cfg.QuestionGap, func() { e.deliverQuestion(room, 0) })
}

// deliverQuestion broadcasts question i, resets both players' answered flags
// and arms the single-shot deadline. The index check re-validates the
// premise under the lock: the room must still be sitting on i-1, so two
// concurrent advances past the same results deliver i exactly once.
func (e *Engine) deliverQuestion(room *Room, i int) {
	room.mu.Lock()
	if room.finalized || i >= len(room.Questions) || room.CurrentIndex != i-1 {
		room.mu.Unlock()
		return
	}
	room.CurrentIndex = i
	room.resultsShown = false
	room.QuestionStartedAt = time.Now()
	for _, p := range room.Players {
		p.Answered = false
	}
	room.questionGen++
	gen := room.questionGen
	payload := room.questionPayload(i)
	room.sendAll(EventQuestionDisplay, payload)
	limit := room.TimeLimit
	room.mu.Unlock()

	e.logger.Debug("question delivered", "match_id", room.MatchID, "index", i)
	time.AfterFunc(limit, func() { e.questionDeadline(room, i, gen) })
}

// questionDeadline fires when the per-question timer elapses. The premise is
// rechecked under the lock: a bumped generation, an advanced index or an
// already-shown result makes it a no-op.
func (e *Engine) questionDeadline(room *Room, i, gen int) {
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.finalized || gen != room.questionGen || i != room.CurrentIndex || room.resultsShown {
		return
	}
	room.sendAll(EventQuestionTimeout, map[string]any{"index": i})
	e.logger.Debug("question timed out", "match_id", room.MatchID, "index", i)
	e.showResultsLocked(room)
}

// SubmitAnswer validates and scores a submission for the given question
// index, notifies the opponent, and resolves the round when both players
// have answered.
func (e *Engine) SubmitAnswer(sess Session, matchID string, questionIndex int, selectedOptionID string) *Error {
	room := e.registry.Resolve(matchID)
	if room == nil {
		return newError(CodeMatchNotFound, "no match found for %q", matchID)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.finalized || room.State != models.MatchActive {
		return newError(CodeMatchUnavailable, "match is not active")
	}
	if questionIndex < 0 || questionIndex >= len(room.Questions) {
		return newError(CodeQuestionNotFound, "question index %d out of range", questionIndex)
	}
	p := room.player(sess.UserID())
	if p == nil {
		return newError(CodeMatchUnavailable, "you are not a participant of this match")
	}
	if p.Answered || room.resultsShown {
		// Late or duplicate submission for a resolved round; not an error.
		return nil
	}

	q := room.Questions[questionIndex]
	correct := IsCorrect(selectedOptionID, q.CorrectOptionID)
	awarded := AwardForAnswer(correct)
	p.Score += awarded
	if correct {
		p.Correct++
	}
	p.Answered = true
	p.Answers = append(p.Answers, AnswerRecord{
		QuestionIndex: questionIndex,
		OptionID:      selectedOptionID,
		Correct:       correct,
	})

	if p.Session != nil {
		p.Session.Send(EventAnswerValidated, map[string]any{
			"isCorrect":       correct,
			"correctOptionId": q.CorrectOptionID,
			"xpAwarded":       awarded,
			"totalScore":      p.Score,
		})
	}
	// The opponent learns an answer happened, not what or whether correct.
	room.sendOpponent(sess.UserID(), EventOpponentAnswered, map[string]any{
		"userId":        sess.UserID(),
		"questionIndex": questionIndex,
	})

	if room.bothAnswered() {
		e.showResultsLocked(room)
	}
	return nil
}

// showResultsLocked broadcasts the round results exactly once per index and
// schedules the advance (or the finalize, after the last question). Caller
// holds the room lock.
func (e *Engine) showResultsLocked(room *Room) {
	if room.resultsShown || room.finalized {
		return
	}
	room.resultsShown = true
	room.questionGen++ // supersede the pending deadline

	i := room.CurrentIndex
	q := room.Questions[i]
	answers := make(map[uint]AnswerView, len(room.Players))
	for _, p := range room.Players {
		for _, a := range p.Answers {
			if a.QuestionIndex == i {
				answers[p.UserID] = AnswerView{OptionID: a.OptionID, Correct: a.Correct}
			}
		}
	}
	room.sendAll(EventQuestionResults, &ResultsPayload{
		Index:           i,
		CorrectOptionID: q.CorrectOptionID,
		PlayerAnswers:   answers,
		Scores:          room.scores(),
	})

	// Scores persist; the per-question answer log does not.
	for _, p := range room.Players {
		p.Answers = nil
	}

	if i >= len(room.Questions)-1 {
		time.AfterFunc(e.cfg.ResultsDelay, func() { e.finalize(room, nil, "finished") })
	} else {
		time.AfterFunc(e.cfg.ResultsDelay, func() { e.autoAdvance(room, i) })
	}
}

// autoAdvance moves past question i unless an explicit next-question already
// did.
func (e *Engine) autoAdvance(room *Room, fromIndex int) {
	room.mu.Lock()
	if room.finalized || room.CurrentIndex != fromIndex || !room.resultsShown {
		room.mu.Unlock()
		return
	}
	room.mu.Unlock()
	e.deliverQuestion(room, fromIndex+1)
}

// NextQuestion advances past the current question's results on explicit
// client request. Past the last question it finalizes.
func (e *Engine) NextQuestion(sess Session, matchID string) *Error {
	room := e.registry.Resolve(matchID)
	if room == nil {
		return newError(CodeMatchNotFound, "no match found for %q", matchID)
	}

	room.mu.Lock()
	if room.player(sess.UserID()) == nil {
		room.mu.Unlock()
		return newError(CodeMatchUnavailable, "you are not a participant of this match")
	}
	if room.finalized || !room.resultsShown {
		room.mu.Unlock()
		return nil
	}
	i := room.CurrentIndex
	room.mu.Unlock()

	if i >= len(room.Questions)-1 {
		e.finalize(room, nil, "finished")
	} else {
		e.deliverQuestion(room, i+1)
	}
	return nil
}

// FinishQuiz marks the caller finish-ready; when both players are, the match
// finalizes immediately regardless of question index.
func (e *Engine) FinishQuiz(sess Session, matchID string) *Error {
	room := e.registry.Resolve(matchID)
	if room == nil {
		return newError(CodeMatchNotFound, "no match found for %q", matchID)
	}

	room.mu.Lock()
	p := room.player(sess.UserID())
	if p == nil || room.finalized {
		room.mu.Unlock()
		return newError(CodeMatchUnavailable, "you are not a participant of this match")
	}
	p.FinishReady = true
	both := room.bothFinishReady()
	if !both {
		room.sendOpponent(sess.UserID(), EventOpponentFinishReady, map[string]any{"userId": sess.UserID()})
	}
	room.mu.Unlock()

	if both {
		e.finalize(room, nil, "finished")
	}
	return nil
}

// ForfeitMatch finalizes immediately with the caller as forfeiter; the
// opponent wins and receives the forfeit bonus.
func (e *Engine) ForfeitMatch(sess Session, matchID string) *Error {
	room := e.registry.Resolve(matchID)
	if room == nil {
		return newError(CodeMatchNotFound, "no match found for %q", matchID)
	}
	room.mu.Lock()
	if room.player(sess.UserID()) == nil {
		room.mu.Unlock()
		return newError(CodeMatchUnavailable, "you are not a participant of this match")
	}
	room.mu.Unlock()

	forfeiter := sess.UserID()
	e.finalize(room, &forfeiter, "forfeit")
	return nil
}

// Disconnect marks the player disconnected in any live room holding this
// session and arms the grace-period timer. Called by the transport when a
// connection drops. The dead session is detached so later room broadcasts
// skip this player until a reconnect rebinds one.
func (e *Engine) Disconnect(sess Session) {
	for _, room := range e.registry.Rooms() {
		room.mu.Lock()
		p := room.player(sess.UserID())
		if p == nil || p.Session != sess || room.finalized {
			room.mu.Unlock()
			continue
		}
		p.Disconnected = true
		p.Session = nil
		room.graceGens[p.UserID]++
		gen := room.graceGens[p.UserID]
		room.sendOpponent(p.UserID, EventOpponentDisconnected, map[string]any{
			"userId":             p.UserID,
			"gracePeriodSeconds": int(e.cfg.GracePeriod.Seconds()),
		})
		userID := p.UserID
		room.mu.Unlock()

		e.logger.Info("player disconnected",
			"match_id", room.MatchID,
			"user_id", userID,
			"grace_period", e.cfg.GracePeriod)
		r := room
		time.AfterFunc(e.cfg.GracePeriod, func() { e.graceExpired(r, userID, gen) })
	}
}

// graceExpired forfeits the match if the player is still disconnected when
// the grace period ends. A reconnect bumps the generation, making this a
// no-op.
func (e *Engine) graceExpired(room *Room, userID uint, gen int) {
	room.mu.Lock()
	p := room.player(userID)
	if p == nil || room.finalized || gen != room.graceGens[userID] || !p.Disconnected {
		room.mu.Unlock()
		return
	}
	room.mu.Unlock()

	e.logger.Info("grace period expired", "match_id", room.MatchID, "user_id", userID)
	e.finalize(room, &userID, "disconnect")
}

// Reconnect rebinds a returning player's session within the grace period and
// replays the full current state to that connection only.
func (e *Engine) Reconnect(sess Session, matchID string) *Error {
	room := e.registry.Resolve(matchID)
	if room == nil {
		return newError(CodeMatchNotFound, "no match found for %q", matchID)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	p := room.player(sess.UserID())
	if p == nil || room.finalized {
		return newError(CodeMatchUnavailable, "you are not a participant of this match")
	}

	p.Disconnected = false
	p.Session = sess
	room.graceGens[p.UserID]++ // cancel the pending grace timer

	statuses := make([]PlayerStatusView, 0, len(room.Players))
	for _, pl := range room.Players {
		statuses = append(statuses, PlayerStatusView{
			UserID:       pl.UserID,
			Username:     pl.Username,
			Score:        pl.Score,
			Answered:     pl.Answered,
			Disconnected: pl.Disconnected,
			FinishReady:  pl.FinishReady,
		})
	}
	status := ComputeTimer(room.QuestionStartedAt, room.TimeLimit, time.Now())
	sess.Send(EventMatchStateRestored, &StatePayload{
		MatchID:          room.MatchID,
		State:            string(room.State),
		Question:         room.questionPayload(room.CurrentIndex),
		RemainingSeconds: status.Remaining.Seconds(),
		Players:          statuses,
	})
	room.sendOpponent(sess.UserID(), EventOpponentReconnected, map[string]any{"userId": sess.UserID()})

	e.logger.Info("player reconnected", "match_id", room.MatchID, "user_id", sess.UserID())
	return nil
}

// SyncTimer replies with the stateless remaining-time poll for the current
// question.
func (e *Engine) SyncTimer(sess Session, matchID string) *Error {
	room := e.registry.Resolve(matchID)
	if room == nil {
		return newError(CodeMatchNotFound, "no match found for %q", matchID)
	}

	room.mu.Lock()
	if room.player(sess.UserID()) == nil {
		room.mu.Unlock()
		return newError(CodeMatchUnavailable, "you are not a participant of this match")
	}
	status := ComputeTimer(room.QuestionStartedAt, room.TimeLimit, time.Now())
	payload := &TimerSyncPayload{
		QuestionIndex:    room.CurrentIndex,
		RemainingSeconds: status.Remaining.Seconds(),
		Percentage:       status.Percentage,
	}
	room.mu.Unlock()

	sess.Send(EventTimerSync, payload)
	return nil
}
