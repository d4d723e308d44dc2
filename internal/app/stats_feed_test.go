package app_test

import (
	"testing"
	"time"

	"quizhub-service/internal/app"
)

func TestStatsFeedDeliversSignals(t *testing.T) {
	feed := app.NewStatsFeed()

	ch, cancel := feed.Subscribe("quiz-1")
	defer cancel()

	feed.Notify("quiz-1")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a signal")
	}

	// notifications for other quizzes must not arrive here
	feed.Notify("quiz-2")
	select {
	case <-ch:
		t.Fatal("received a signal for the wrong quiz")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStatsFeedCoalescesPendingSignals(t *testing.T) {
	feed := app.NewStatsFeed()
	ch, cancel := feed.Subscribe("quiz-1")
	defer cancel()

	feed.Notify("quiz-1")
	feed.Notify("quiz-1")
	feed.Notify("quiz-1")

	<-ch
	select {
	case <-ch:
		t.Fatal("pending signals should coalesce into one")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStatsFeedCancelClosesChannel(t *testing.T) {
	feed := app.NewStatsFeed()
	ch, cancel := feed.Subscribe("quiz-1")
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}
	// a second cancel must be a no-op
	cancel()
	// notifying after cancel must not panic
	feed.Notify("quiz-1")
}
