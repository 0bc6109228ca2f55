package reflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffect(t *testing.T) {
	t.Run("runs on value change with cleanup", func(t *testing.T) {
		log := []string{}

		count := NewValue(0)
		log = append(log, fmt.Sprintf("%d", count.Get()))

		NewEffect(func() func() {
			log = append(log, fmt.Sprintf("changed %d", count.Get()))
			return func() { log = append(log, "cleanup") }
		})

		count.Set(10)
		log = append(log, fmt.Sprintf("%d", count.Get()))
		count.Set(20)

		assert.Equal(t, []string{
			"0",
			"changed 0",
			"cleanup",
			"changed 10",
			"10",
			"cleanup",
			"changed 20",
		}, log)
	})

	t.Run("writes to another value", func(t *testing.T) {
		log := []string{}

		count := NewValue(0)
		double := NewValue(0)

		NewEffect(func() func() {
			double.Set(count.Get() * 2)
			return nil
		})
		NewEffect(func() func() {
			log = append(log, fmt.Sprintf("changed %d", double.Get()))
			return func() { log = append(log, "cleanup") }
		})

		count.Set(10)

		assert.Equal(t, []string{
			"changed 0",
			"cleanup",
			"changed 20",
		}, log)
	})

	t.Run("sees settled observations", func(t *testing.T) {
		log := []string{}

		count := NewValue(1)
		double := NewObservation(func() int { return count.Get() * 2 })

		NewEffect(func() func() {
			log = append(log, fmt.Sprintf("%d %d", count.Get(), double.Get()))
			return nil
		})

		count.Set(2)

		assert.Equal(t, []string{"1 2", "2 4"}, log)
	})

	t.Run("render effects run first", func(t *testing.T) {
		log := []string{}

		count := NewValue(0)
		NewEffect(func() func() {
			log = append(log, fmt.Sprintf("user %d", count.Get()))
			return nil
		})
		NewRenderEffect(func() func() {
			log = append(log, fmt.Sprintf("render %d", count.Get()))
			return nil
		})

		count.Set(1)

		assert.Equal(t, []string{"user 0", "render 0", "render 1", "user 1"}, log)
	})

	t.Run("disposes", func(t *testing.T) {
		log := []string{}

		count := NewValue(0)
		e := NewEffect(func() func() {
			log = append(log, fmt.Sprintf("changed %d", count.Get()))
			return func() { log = append(log, "cleanup") }
		})

		e.Dispose()
		count.Set(1)

		assert.Equal(t, []string{"changed 0", "cleanup"}, log)
	})
}
