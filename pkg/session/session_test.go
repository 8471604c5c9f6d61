package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishInSubscriptionOrder(t *testing.T) {
	hub := NewHub()
	var got []string

	unsubA := hub.Subscribe(func(_ context.Context, ev Event) { got = append(got, "a:"+ev.Kind.String()) })
	unsubB := hub.Subscribe(func(_ context.Context, ev Event) { got = append(got, "b:"+ev.Kind.String()) })
	defer unsubB()

	hub.Publish(context.Background(), Event{Kind: SignedIn, Session: Session{UserID: "u1"}})
	assert.Equal(t, []string{"a:signed_in", "b:signed_in"}, got)

	unsubA()
	unsubA()
	assert.Equal(t, 1, hub.Len())

	got = nil
	hub.Publish(context.Background(), Event{Kind: SignedOut})
	assert.Equal(t, []string{"b:signed_out"}, got)
}

func TestHub_PublishStampsTime(t *testing.T) {
	hub := NewHub()
	var ev Event
	hub.Subscribe(func(_ context.Context, e Event) { ev = e })

	hub.Publish(context.Background(), Event{Kind: SignedIn})
	assert.False(t, ev.At.IsZero())
}

func TestSession_Valid(t *testing.T) {
	assert.False(t, Session{}.Valid())
	assert.True(t, Session{UserID: "u1"}.Valid())
}
