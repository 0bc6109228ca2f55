package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnatoleLucet/reflow/internal/config"
)

func TestBench(t *testing.T) {
	for _, shape := range []string{"chain", "fan", "diamond"} {
		t.Run(shape, func(t *testing.T) {
			c := config.Default()
			c.Bench.Shape = shape
			c.Bench.Width = 3
			c.Bench.Depth = 4
			c.Bench.Iterations = 5
			c.Metrics.Enabled = true

			res, err := runBench(c, zap.NewNop())
			require.NoError(t, err)

			assert.Equal(t, expected(shape, 3, 4, 5), res.Final)
			assert.Equal(t, 6, res.EffectRuns)
		})
	}

	t.Run("chain recomputes every node once per write", func(t *testing.T) {
		c := config.Default()
		c.Bench.Shape = "chain"
		c.Bench.Depth = 3
		c.Bench.Iterations = 2

		res, err := runBench(c, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, 3, res.Nodes)
		assert.Equal(t, 3*(c.Bench.Iterations+1), res.Computes)
	})

	t.Run("rejects unknown shapes", func(t *testing.T) {
		_, err := buildGraph("star", 1, 1)
		assert.Error(t, err)
	})
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "reflow")
}
