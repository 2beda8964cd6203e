package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/trailmap/trail-explorer/internal/models"
	"github.com/trailmap/trail-explorer/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drain(ch <-chan render.Frame) []render.Frame {
	var out []render.Frame
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(4)

	id, ch := b.Subscribe()
	if n := b.SubscriberCount(); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}

	b.Unsubscribe(id)
	b.Unsubscribe(id)
	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
}

func TestBroadcaster_EverySubscriberGetsFramesInOrder(t *testing.T) {
	b := NewBroadcaster(4)
	defer b.Close()

	_, first := b.Subscribe()
	_, second := b.Subscribe()

	b.Publish(render.Frame{Status: render.StatusLoading, Message: "Loading..."})
	b.Publish(render.Frame{Status: render.StatusReady, Viewport: &models.Viewport{Zoom: 10}})

	for name, ch := range map[string]<-chan render.Frame{"first": first, "second": second} {
		got := drain(ch)
		if len(got) != 2 {
			t.Fatalf("%s: expected 2 frames, got %d", name, len(got))
		}
		if got[0].Status != render.StatusLoading || got[1].Status != render.StatusReady {
			t.Errorf("%s: frames out of order: %s, %s", name, got[0].Status, got[1].Status)
		}
		if got[1].Viewport == nil || got[1].Viewport.Zoom != 10 {
			t.Errorf("%s: viewport not delivered", name)
		}
	}
}

func TestBroadcaster_SlowSubscriberDropsFrames(t *testing.T) {
	b := NewBroadcaster(3)
	defer b.Close()

	_, ch := b.Subscribe()
	for i := 0; i < 5; i++ {
		b.Publish(render.Frame{Status: render.StatusReady})
	}

	if got := len(drain(ch)); got != 3 {
		t.Errorf("expected 3 buffered frames, got %d", got)
	}
	if d := b.Dropped(); d != 2 {
		t.Errorf("expected 2 dropped frames, got %d", d)
	}
}

func TestBroadcaster_DefaultBuffer(t *testing.T) {
	b := NewBroadcaster(0)
	defer b.Close()

	_, ch := b.Subscribe()
	if c := cap(ch); c != DefaultBuffer {
		t.Errorf("expected buffer %d, got %d", DefaultBuffer, c)
	}
}

func TestBroadcaster_ConcurrentSubscribePublish(t *testing.T) {
	b := NewBroadcaster(8)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id, ch := b.Subscribe()
			done := make(chan struct{})
			go func() {
				defer close(done)
				for range ch {
				}
			}()
			time.Sleep(2 * time.Millisecond)
			b.Unsubscribe(id)
			<-done
		}()
		go func() {
			defer wg.Done()
			b.Publish(render.Frame{Status: render.StatusLoading})
		}()
	}
	wg.Wait()

	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestBroadcaster_CloseEndsAllSubscribers(t *testing.T) {
	b := NewBroadcaster(4)

	var channels []<-chan render.Frame
	for i := 0; i < 3; i++ {
		_, ch := b.Subscribe()
		channels = append(channels, ch)
	}
	b.Publish(render.Frame{Status: render.StatusError, Message: "Error..."})
	b.Close()

	for i, ch := range channels {
		got := drain(ch)
		if len(got) != 1 {
			t.Errorf("subscriber %d: expected pending frame before close, got %d", i, len(got))
		}
		if _, ok := <-ch; ok {
			t.Errorf("subscriber %d: channel should be closed", i)
		}
	}
}

func TestBroadcaster_BlockingSubscriberWaits(t *testing.T) {
	b := NewBroadcaster(1)
	defer b.Close()

	_, ch := b.SubscribeBlocking()
	b.Publish(render.Frame{Status: render.StatusLoading})

	published := make(chan struct{})
	go func() {
		b.Publish(render.Frame{Status: render.StatusReady})
		close(published)
	}()

	select {
	case <-published:
		t.Fatal("Publish returned while the blocking subscriber was full")
	case <-time.After(20 * time.Millisecond):
	}

	if f := <-ch; f.Status != render.StatusLoading {
		t.Errorf("expected loading frame first, got %s", f.Status)
	}
	<-published
	if f := <-ch; f.Status != render.StatusReady {
		t.Errorf("expected ready frame second, got %s", f.Status)
	}
	if d := b.Dropped(); d != 0 {
		t.Errorf("expected no dropped frames, got %d", d)
	}
}

func TestBroadcaster_PublishContextGivesUp(t *testing.T) {
	b := NewBroadcaster(1)
	defer b.Close()

	_, ch := b.SubscribeBlocking()
	b.Publish(render.Frame{Status: render.StatusLoading})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	b.PublishContext(ctx, render.Frame{Status: render.StatusReady})

	if d := b.Dropped(); d != 1 {
		t.Errorf("expected 1 dropped frame, got %d", d)
	}
	if got := len(drain(ch)); got != 1 {
		t.Errorf("expected only the first frame, got %d", got)
	}
}

func TestBroadcaster_UnsubscribeReleasesWaitingPublish(t *testing.T) {
	b := NewBroadcaster(1)

	id, _ := b.SubscribeBlocking()
	b.Publish(render.Frame{Status: render.StatusLoading})

	published := make(chan struct{})
	go func() {
		b.Publish(render.Frame{Status: render.StatusReady})
		close(published)
	}()
	time.Sleep(10 * time.Millisecond)

	b.Unsubscribe(id)
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish still waiting after Unsubscribe")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}
