package main

import (
	"fmt"

	"github.com/AnatoleLucet/reflow"
)

// graph is a source value feeding layers of observations into one sink.
type graph struct {
	source *reflow.Value[int]
	sink   *reflow.Observation[int]

	nodes    int
	computes int
}

func maxOf(nodes []*reflow.Observation[int]) int {
	m := nodes[0].Get()
	for _, n := range nodes[1:] {
		m = max(m, n.Get())
	}
	return m
}

// buildGraph wires a graph of the given shape. Every shape settles its sink
// to expected(shape, width, depth, source).
func buildGraph(shape string, width, depth int) (*graph, error) {
	g := &graph{source: reflow.NewValue(0, reflow.WithName("source"))}

	node := func(name string, fn func() int) *reflow.Observation[int] {
		g.nodes++
		return reflow.NewObservation(func() int {
			g.computes++
			return fn()
		}, reflow.WithName(name))
	}

	switch shape {
	case "chain":
		prev := node("chain[0]", func() int { return g.source.Get() + 1 })
		for d := 1; d < depth; d++ {
			p := prev
			prev = node(fmt.Sprintf("chain[%d]", d), func() int { return p.Get() + 1 })
		}
		g.sink = prev

	case "fan":
		leaves := make([]*reflow.Observation[int], width)
		for w := range leaves {
			leaves[w] = node(fmt.Sprintf("fan[%d]", w), func() int { return g.source.Get() + 1 })
		}
		g.sink = node("sum", func() int {
			sum := 0
			for _, l := range leaves {
				sum += l.Get()
			}
			return sum
		})

	case "diamond":
		layer := make([]*reflow.Observation[int], width)
		for w := range layer {
			layer[w] = node(fmt.Sprintf("diamond[0][%d]", w), func() int { return g.source.Get() + 1 })
		}
		for d := 1; d < depth; d++ {
			prev := layer
			layer = make([]*reflow.Observation[int], width)
			for w := range layer {
				layer[w] = node(fmt.Sprintf("diamond[%d][%d]", d, w), func() int { return maxOf(prev) + 1 })
			}
		}
		last := layer
		g.sink = node("max", func() int { return maxOf(last) })

	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}

	return g, nil
}

func expected(shape string, width, depth, source int) int {
	if shape == "fan" {
		return width * (source + 1)
	}
	return source + depth
}
