package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRegister(t *testing.T) {
	t.Run("distinct names register independently", func(t *testing.T) {
		r := NewRegistry()
		var calledA, calledB bool
		r.Register("a", func(*Payload) bool { calledA = true; return true })
		r.Register("b", func(*Payload) bool { calledB = true; return true })

		assert.True(t, r.Execute("a", NewPayload(nil)))
		assert.True(t, r.Execute("b", NewPayload(nil)))
		assert.True(t, calledA)
		assert.True(t, calledB)
		assert.Equal(t, []string{"a", "b"}, r.Names())
	})

	t.Run("first registration wins", func(t *testing.T) {
		r := NewRegistry()
		var first, second int
		r.Register("set_led", func(*Payload) bool { first++; return true })
		r.Register("set_led", func(*Payload) bool { second++; return false })

		assert.True(t, r.Execute("set_led", NewPayload(nil)))
		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
	})

	t.Run("ignores empty name and nil handler", func(t *testing.T) {
		r := NewRegistry()
		r.Register("", func(*Payload) bool { return true })
		r.Register("noop", nil)

		assert.Empty(t, r.Names())
		assert.False(t, r.Has("noop"))
	})
}

func TestExecute(t *testing.T) {
	t.Run("unknown command fails without invoking handlers", func(t *testing.T) {
		r := NewRegistry()
		called := false
		r.Register("known", func(*Payload) bool { called = true; return true })

		assert.False(t, r.Execute("nonexistent", NewPayload(nil)))
		assert.False(t, called)
	})

	t.Run("returns the handler's own result", func(t *testing.T) {
		r := NewRegistry()
		r.Register("fails", func(*Payload) bool { return false })
		r.Register("passes", func(*Payload) bool { return true })

		assert.False(t, r.Execute("fails", NewPayload(nil)))
		assert.True(t, r.Execute("passes", NewPayload(nil)))
	})

	t.Run("passes payload through", func(t *testing.T) {
		r := NewRegistry()
		var got *Payload
		r.Register("echo", func(p *Payload) bool { got = p; return true })

		p := NewPayload(json.RawMessage(`{"arguments":["on"]}`))
		require.True(t, r.Execute("echo", p))
		assert.Same(t, p, got)
	})
}

func TestPayload(t *testing.T) {
	assert.False(t, (*Payload)(nil).HasData())
	assert.False(t, NewPayload(nil).HasData())
	assert.False(t, NewPayload(json.RawMessage(" null ")).HasData())
	assert.True(t, NewPayload(json.RawMessage(`{}`)).HasData())

	resp := NewResponse()
	assert.False(t, resp.Filled())
	resp.Data["status"] = StatusOK
	assert.Equal(t, StatusOK, resp.Status())
	assert.True(t, resp.Filled())
}
