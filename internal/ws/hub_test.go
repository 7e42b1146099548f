package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"quizduel/backend/internal/config"
	"quizduel/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte, sendBuffer)}
}

// nextEnvelope pops the next queued outgoing envelope.
func nextEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no outgoing message queued")
		return Envelope{}
	}
}

func errorCode(t *testing.T, env Envelope) string {
	t.Helper()
	require.Equal(t, "error", env.Type)
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &body))
	return body.Code
}

func TestDispatch_RequiresUserJoin(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h)

	h.dispatch(c, Envelope{Type: "create-match", Payload: json.RawMessage(`{"categoryId":1}`)})

	assert.Equal(t, "NOT_AUTHENTICATED", errorCode(t, nextEnvelope(t, c)))
	assert.False(t, c.identified())
}

func TestHandleUserJoin(t *testing.T) {
	t.Run("claimed id without token", func(t *testing.T) {
		h := newTestHub()
		c := newTestClient(h)

		h.dispatch(c, Envelope{Type: "user-join", Payload: json.RawMessage(`{"userId":7,"username":"alice"}`)})

		env := nextEnvelope(t, c)
		assert.Equal(t, "user-joined-success", env.Type)
		assert.True(t, c.identified())
		assert.Equal(t, uint(7), c.UserID())
		assert.Equal(t, "alice", c.Username())
	})

	t.Run("missing username rejected", func(t *testing.T) {
		h := newTestHub()
		c := newTestClient(h)

		h.dispatch(c, Envelope{Type: "user-join", Payload: json.RawMessage(`{"userId":7}`)})

		assert.Equal(t, "BAD_REQUEST", errorCode(t, nextEnvelope(t, c)))
		assert.False(t, c.identified())
	})

	t.Run("token overrides claimed id", func(t *testing.T) {
		config.AppConfig = &config.Config{JWTSecret: "test-secret"}
		token, err := jwt.GenerateToken(42)
		require.NoError(t, err)

		h := newTestHub()
		c := newTestClient(h)
		payload, _ := json.Marshal(map[string]any{
			"userId":   7,
			"username": "alice",
			"token":    token,
		})
		h.dispatch(c, Envelope{Type: "user-join", Payload: payload})

		env := nextEnvelope(t, c)
		assert.Equal(t, "user-joined-success", env.Type)
		assert.Equal(t, uint(42), c.UserID())
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		config.AppConfig = &config.Config{JWTSecret: "test-secret"}

		h := newTestHub()
		c := newTestClient(h)
		h.dispatch(c, Envelope{Type: "user-join", Payload: json.RawMessage(`{"userId":7,"username":"alice","token":"not.a.jwt"}`)})

		assert.Equal(t, "INVALID_TOKEN", errorCode(t, nextEnvelope(t, c)))
		assert.False(t, c.identified())
	})
}

func TestDispatch_PanicBecomesInternalError(t *testing.T) {
	// No engine wired: any routed event panics inside the handler and must
	// come back as a structured error, not a crash.
	h := newTestHub()
	c := newTestClient(h)
	c.bind(1, "alice")

	h.dispatch(c, Envelope{Type: "create-match", Payload: json.RawMessage(`{"categoryId":1}`)})

	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, nextEnvelope(t, c)))
}

func TestSend_AfterCloseIsSilent(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h)
	c.bind(1, "alice")
	c.close()

	// A room timer can still hold this session after the socket died; its
	// send must be dropped, not panic on the closed queue.
	assert.NotPanics(t, func() {
		c.Send("match-ended", map[string]any{"reason": "disconnect"})
	})

	// Repeated close stays idempotent too.
	assert.NotPanics(t, c.close)
}

func TestDispatch_MalformedPayload(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h)
	c.bind(1, "alice")

	h.dispatch(c, Envelope{Type: "submit-answer", Payload: json.RawMessage(`"not an object"`)})

	assert.Equal(t, "BAD_REQUEST", errorCode(t, nextEnvelope(t, c)))
}
