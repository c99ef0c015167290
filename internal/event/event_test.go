package event_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/quickcraft/internal/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	type (
		inputs struct {
			published   []event.Event
			subscribers []subscriber
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a subscriber only receives events it subscribed to": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						named("session.completed"),
						named("leaderboard.updated"),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{"session.completed"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{named("session.completed")}, out.received["s1"])
			},
		},

		"every publish of the same event is delivered": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						named("session.completed"),
						named("session.completed"),
						named("session.completed"),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{"session.completed"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["s1"], 3)
			},
		},

		"an event fans out to every subscriber": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						named("session.completed"),
					},
					subscribers: []subscriber{
						{
							name:        "leaderboard",
							subscribeTo: []string{"session.completed"},
						},
						{
							name:        "notifier",
							subscribeTo: []string{"session.completed"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{named("session.completed")}, out.received["leaderboard"])
				assert.ElementsMatch(t, []event.Event{named("session.completed")}, out.received["notifier"])
			},
		},

		"overlapping subscriptions each get their own delivery": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						named("session.completed"),
						named("leaderboard.updated"),
						named("session.completed"),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{"session.completed"},
						},
						{
							name:        "s2",
							subscribeTo: []string{"session.completed", "leaderboard.updated"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["s1"], 2)
				assert.Len(t, out.received["s2"], 3)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			mu := sync.Mutex{}
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for _, s := range in.subscribers {
				s := s
				for _, e := range s.subscribeTo {
					b.Subscribe(e, func(ctx context.Context, e event.Event) error {
						mu.Lock()
						out.received[s.name] = append(out.received[s.name], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	b := event.NewBus()

	b.Subscribe("session.completed", func(context.Context, event.Event) error {
		panic("handler exploded")
	})

	var mu sync.Mutex
	var delivered int
	b.Subscribe("session.completed", func(context.Context, event.Event) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})

	b.Publish(context.Background(), named("session.completed"))
	b.Stop()

	assert.Equal(t, 1, delivered)
}

type named string

func (e named) Name() string {
	return string(e)
}

type subscriber struct {
	name        string
	subscribeTo []string
}
