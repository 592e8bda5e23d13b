package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunIDs(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunIDs("").Next())

	g := NewFixedRunIDs("run-x")
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "run-x", g.Next())
		}()
	}
	wg.Wait()
}

func TestWeightGrammar(t *testing.T) {
	g := WeightGrammar(t)
	assert.Len(t, g.Producers, 1)
	assert.Len(t, g.Scanner, 3)

	code, ok := g.Code("weight")
	assert.True(t, ok)
	assert.NotEmpty(t, code)
}

func TestDiscardLogger(t *testing.T) {
	l := DiscardLogger()
	assert.NotNil(t, l)
	l.Info("dropped", "k", "v")
}
