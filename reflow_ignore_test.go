package reflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIgnore(t *testing.T) {
	t.Run("does not record reads", func(t *testing.T) {
		log := []string{}

		count := NewValue(0)

		NewEffect(func() func() {
			c := Ignore(count.Get)
			log = append(log, fmt.Sprintf("effect %d", c))
			return nil
		})

		count.Set(10)

		assert.Equal(t, []string{
			"effect 0",
		}, log)
	})

	t.Run("peeks", func(t *testing.T) {
		runs := 0

		count := NewValue(1)
		NewEffect(func() func() {
			runs++
			assert.True(t, IsRecording())
			assert.Equal(t, 1, Peek[int](count))
			return nil
		})

		count.Set(2)

		assert.Equal(t, 1, runs)
		assert.False(t, IsRecording())
	})
}
