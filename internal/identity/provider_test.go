package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/growth-tracker/internal/models"
)

func TestHandleCurrent(t *testing.T) {
	h := NewHandle()

	_, ok := h.Current()
	assert.False(t, ok)

	h.Set(models.User{ID: "u-1"})
	user, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "u-1", user.ID)

	h.Clear()
	_, ok = h.Current()
	assert.False(t, ok)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	h := NewHandle()

	var events []bool
	unsubscribe := h.Subscribe(func(_ models.User, ok bool) {
		events = append(events, ok)
	})

	h.Set(models.User{ID: "u-1"})
	h.Clear()
	require.Equal(t, []bool{true, false}, events)

	// After unsubscribe nothing more arrives.
	unsubscribe()
	h.Set(models.User{ID: "u-2"})
	assert.Len(t, events, 2)

	// Double unsubscribe is harmless.
	unsubscribe()
}

func TestSubscribersNotifiedInRegistrationOrder(t *testing.T) {
	h := NewHandle()

	var order []int
	h.Subscribe(func(models.User, bool) { order = append(order, 1) })
	h.Subscribe(func(models.User, bool) { order = append(order, 2) })
	h.Subscribe(func(models.User, bool) { order = append(order, 3) })

	h.Set(models.User{ID: "u-1"})
	assert.Equal(t, []int{1, 2, 3}, order)
}
