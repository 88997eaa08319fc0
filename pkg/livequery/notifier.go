package livequery

import (
	"context"
	"sync"

	redisclient "github.com/bagaspradana/tokoadmin-backend/pkg/redis"
)

// RedisNotifier bridges Redis pub/sub change channels into Notifier.
type RedisNotifier struct {
	client *redisclient.Client
}

func NewRedisNotifier(client *redisclient.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Subscribe(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	sub, err := n.client.SubscribeChanges(ctx, collection)
	if err != nil {
		return nil, nil, err
	}

	ticks := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer close(ticks)
		ch := sub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				// collapse bursts into a single pending tick
				select {
				case ticks <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return ticks, cancel, nil
}

// LocalNotifier is an in-process Notifier used by tests and by the
// worker binaries that have no Redis connection.
type LocalNotifier struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[string][]chan struct{})}
}

func (n *LocalNotifier) Subscribe(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	n.subs[collection] = append(n.subs[collection], ch)
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			remaining := n.subs[collection][:0]
			for _, sub := range n.subs[collection] {
				if sub != ch {
					remaining = append(remaining, sub)
				}
			}
			n.subs[collection] = remaining
		})
	}
	return ch, cancel, nil
}

// Publish fans a change tick out to every subscriber of the collection.
func (n *LocalNotifier) Publish(collection string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
