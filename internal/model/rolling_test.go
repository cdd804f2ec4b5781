package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollingReturns_WarmupGate(t *testing.T) {
	m := New(Config{HorizonMs: 1000, WarmupSamples: 3})
	m.Update(0, 100)
	m.Update(1500, 101)
	_, ok := m.FairUpProb()
	require.False(t, ok)
}

func TestRollingReturns_FairUpProbAfterWarmup(t *testing.T) {
	m := New(Config{HorizonMs: 1000, WarmupSamples: 2})
	m.Update(0, 100)
	m.Update(1000, 101)
	m.Update(2000, 99)
	m.Update(3000, 102)

	prob, ok := m.FairUpProb()
	require.True(t, ok)
	require.GreaterOrEqual(t, prob, 0.0)
	require.LessOrEqual(t, prob, 1.0)
}

func TestRollingReturns_MaxReturnsBound(t *testing.T) {
	m := New(Config{HorizonMs: 10, WarmupSamples: 1, MaxReturns: 5})
	for i := int64(0); i < 100; i++ {
		m.Update(i*10, float64(100+i))
	}
	require.LessOrEqual(t, m.ReturnCount(), 5)
}

func TestRollingReturns_DiscardsOldPrices(t *testing.T) {
	m := New(Config{HorizonMs: 100, WarmupSamples: 1})
	m.Update(0, 100)
	m.Update(5000, 110)
	require.Len(t, m.prices, 1, "samples older than 2*horizon must be pruned")
}
