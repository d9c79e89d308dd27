package notification

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()

	own, cancelOwn := hub.Subscribe("u1")
	defer cancelOwn()
	other, cancelOther := hub.Subscribe("u2")
	defer cancelOther()
	all, cancelAll := hub.Subscribe("")
	defer cancelAll()

	sent := hub.Publish(Notification{UserID: "u1", Kind: KindRoomStarted, Title: "Cours démarré"})
	require.NotEmpty(t, sent.ID)
	require.False(t, sent.CreatedAt.IsZero())

	select {
	case n := <-own:
		assert.Equal(t, sent, n)
	default:
		t.Fatal("u1 subscriber should have received the notification")
	}
	select {
	case n := <-all:
		assert.Equal(t, sent, n)
	default:
		t.Fatal("broadcast listener should see every notification")
	}
	select {
	case <-other:
		t.Fatal("u2 subscriber should not receive u1's notification")
	default:
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe("u1")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("u2")
	defer cancel2()

	hub.Publish(Notification{Title: "Maintenance ce soir"}) // no UserID = broadcast

	for _, ch := range []<-chan Notification{ch1, ch2} {
		select {
		case n := <-ch:
			assert.Equal(t, "Maintenance ce soir", n.Title)
		default:
			t.Fatal("all subscribers should receive a broadcast")
		}
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("u1")
	defer cancel()

	// the subscription buffer holds 16; publishing past it must not block
	for i := 0; i < 20; i++ {
		hub.Publish(Notification{UserID: "u1", Title: fmt.Sprintf("n%d", i)})
	}
	assert.Len(t, ch, 16)
}

func TestHub_Recent(t *testing.T) {
	hub := NewHub()

	hub.Publish(Notification{UserID: "u1", Title: "a"})
	hub.Publish(Notification{UserID: "u2", Title: "b"})
	hub.Publish(Notification{Title: "c"}) // broadcast
	hub.Publish(Notification{UserID: "u1", Title: "d"})

	titles := func(ns []Notification) (out []string) {
		for _, n := range ns {
			out = append(out, n.Title)
		}
		return
	}

	// newest first, own plus broadcasts only
	assert.Equal(t, []string{"d", "c", "a"}, titles(hub.Recent("u1", 0)))
	assert.Equal(t, []string{"c", "b"}, titles(hub.Recent("u2", 0)))
	assert.Equal(t, []string{"d", "c"}, titles(hub.Recent("u1", 2)))
}

func TestHub_RecentRetentionCap(t *testing.T) {
	hub := NewHub()

	for i := 0; i < recentCap+10; i++ {
		hub.Publish(Notification{UserID: "u1", Title: fmt.Sprintf("n%d", i)})
	}
	recent := hub.Recent("u1", 0)
	require.Len(t, recent, recentCap)
	assert.Equal(t, fmt.Sprintf("n%d", recentCap+9), recent[0].Title)
}

func TestHub_Cancel(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("u1")
	cancel()

	hub.Publish(Notification{UserID: "u1", Title: "après désabonnement"})
	assert.Len(t, ch, 0)
}
