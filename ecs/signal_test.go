package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plus3/ignite/ecs"
)

func TestSignal(t *testing.T) {
	t.Run("handlers run in subscription order", func(t *testing.T) {
		var s ecs.Signal[func(int)]
		var calls []string
		s.Subscribe(func(v int) { calls = append(calls, "a") })
		s.Subscribe(func(v int) { calls = append(calls, "b") })

		s.Emit(func(fn func(int)) { fn(1) })
		assert.Equal(t, []string{"a", "b"}, calls)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("unsubscribe", func(t *testing.T) {
		var s ecs.Signal[func()]
		count := 0
		sub := s.Subscribe(func() { count++ })

		s.Emit(func(fn func()) { fn() })
		sub.Unsubscribe()
		sub.Unsubscribe()
		s.Emit(func(fn func()) { fn() })

		assert.Equal(t, 1, count)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("unsubscribing during emit skips pending handlers", func(t *testing.T) {
		var s ecs.Signal[func()]
		var second ecs.Subscription
		calls := 0
		s.Subscribe(func() {
			calls++
			second.Unsubscribe()
		})
		second = s.Subscribe(func() { calls += 10 })

		s.Emit(func(fn func()) { fn() })
		assert.Equal(t, 1, calls)
	})

	t.Run("subscribing during emit waits for the next emit", func(t *testing.T) {
		var s ecs.Signal[func()]
		calls := 0
		s.Subscribe(func() {
			calls++
			s.Subscribe(func() { calls += 10 })
		})

		s.Emit(func(fn func()) { fn() })
		assert.Equal(t, 1, calls)
	})

	t.Run("clear", func(t *testing.T) {
		var s ecs.Signal[func()]
		sub := s.Subscribe(func() { t.Fatal("cleared handler called") })
		s.Clear()
		s.Emit(func(fn func()) { fn() })
		sub.Unsubscribe()
		assert.Equal(t, 0, s.Len())
	})
}
