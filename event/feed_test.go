package event

import (
	"sync"
	"testing"
	"time"
)

func TestFeedDelivery(t *testing.T) {
	var (
		feed FeedOf[int]
		wg   sync.WaitGroup
		n    = 3
		got  = make([]int, n)
	)
	for i := 0; i < n; i++ {
		ch := make(chan int)
		sub := feed.Subscribe(ch)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sub.Unsubscribe()
			got[i] = <-ch
		}(i)
	}
	if sent := feed.Send(42); sent != n {
		t.Fatalf("sent to %d subscribers, want %d", sent, n)
	}
	wg.Wait()
	for i, v := range got {
		if v != 42 {
			t.Errorf("subscriber %d got %d", i, v)
		}
	}
}

func TestFeedUnsubscribeUnblocks(t *testing.T) {
	var feed FeedOf[string]
	sub := feed.Subscribe(make(chan string)) // nobody reads

	done := make(chan int)
	go func() { done <- feed.Send("x") }()

	time.Sleep(10 * time.Millisecond)
	sub.Unsubscribe()
	select {
	case n := <-done:
		if n != 0 {
			t.Fatalf("sent to %d, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Send did not return after Unsubscribe")
	}
	if _, ok := <-sub.Err(); ok {
		t.Fatal("err channel not closed after Unsubscribe")
	}
	// double unsubscribe is fine
	sub.Unsubscribe()
}

func TestFeedClose(t *testing.T) {
	var feed FeedOf[int]
	sub := feed.Subscribe(make(chan int, 1))
	feed.Close()

	if err := <-sub.Err(); err != ErrFeedClosed {
		t.Fatalf("have %v, want ErrFeedClosed", err)
	}
	late := feed.Subscribe(make(chan int, 1))
	if err := <-late.Err(); err != ErrFeedClosed {
		t.Fatalf("late subscription: have %v, want ErrFeedClosed", err)
	}
	if n := feed.Send(1); n != 0 {
		t.Fatalf("sent %d after close", n)
	}
	sub.Unsubscribe()
}
