// Package event deals with subscriptions to real-time events.
package event

import (
	"errors"
	"sync"
)

// ErrFeedClosed is delivered on the Err channel of subscriptions whose feed
// was closed.
var ErrFeedClosed = errors.New("event: feed closed")

// Subscription represents a stream of events. The carrier of the events is typically a
// channel, but isn't part of the interface.
//
// The Err channel is closed when Unsubscribe is called, or receives an error
// when the feed is closed.
type Subscription interface {
	Err() <-chan error // returns the error channel
	Unsubscribe()      // cancels sending of events, closing the error channel
}

// FeedOf implements one-to-many subscriptions where the carrier of events is a channel.
// Values sent to a Feed are delivered to all subscribed channels simultaneously.
//
// Send blocks until every subscriber that has not unsubscribed accepted the
// value. The zero value is ready to use.
type FeedOf[T any] struct {
	mu     sync.Mutex
	subs   map[*feedOfSub[T]]struct{}
	closed bool
}

type feedOfSub[T any] struct {
	feed    *FeedOf[T]
	channel chan<- T
	quit    chan struct{}
	err     chan error
	once    sync.Once
}

// Subscribe adds a channel to the feed. Future sends will be delivered on the channel
// until the subscription is canceled.
func (f *FeedOf[T]) Subscribe(channel chan<- T) Subscription {
	sub := &feedOfSub[T]{
		feed:    f,
		channel: channel,
		quit:    make(chan struct{}),
		err:     make(chan error, 1),
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		sub.err <- ErrFeedClosed
		close(sub.err)
		return sub
	}
	if f.subs == nil {
		f.subs = make(map[*feedOfSub[T]]struct{})
	}
	f.subs[sub] = struct{}{}
	return sub
}

// Send delivers to all subscribed channels simultaneously.
// It returns the number of subscribers that the value was sent to.
func (f *FeedOf[T]) Send(value T) (nsent int) {
	f.mu.Lock()
	subs := make([]*feedOfSub[T], 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.channel <- value:
			nsent++
		case <-sub.quit:
		}
	}
	return nsent
}

// Close detaches every subscriber, delivering ErrFeedClosed on their Err
// channels. Later subscriptions fail immediately.
func (f *FeedOf[T]) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.closed = true
	f.mu.Unlock()

	for sub := range subs {
		sub.once.Do(func() {
			close(sub.quit)
			sub.err <- ErrFeedClosed
			close(sub.err)
		})
	}
}

func (f *FeedOf[T]) remove(sub *feedOfSub[T]) {
	f.mu.Lock()
	delete(f.subs, sub)
	f.mu.Unlock()
}

func (sub *feedOfSub[T]) Unsubscribe() {
	sub.once.Do(func() {
		sub.feed.remove(sub)
		close(sub.quit)
		close(sub.err)
	})
}

func (sub *feedOfSub[T]) Err() <-chan error {
	return sub.err
}
