package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildAB builds a small NFA accepting strings over {a,b} that end in "ab",
// via two overlapping paths to force a genuine non-deterministic collapse.
func buildAB(t *testing.T) *NFA {
	t.Helper()
	n := NewNFA()

	s0 := n.BeginState()
	n.SetStartState()
	n.AddTransition('a', s0)
	n.AddTransition('b', s0)
	s1 := n.CreateState()
	n.AddTransition('a', s1)
	n.EndState()

	n.BeginStateAt(s1)
	n.AddTransition('a', s1)
	s2 := n.CreateState()
	n.AddTransition('b', s2)
	n.EndState()

	n.BeginStateAt(s2)
	n.SetAccepting(true)
	n.AddTransition('a', s1)
	n.AddTransition('b', s0)
	n.EndState()

	return n
}

func run(t *testing.T, dfa *DFA, word string) bool {
	t.Helper()
	rt, err := NewRuntime(dfa)
	require.NoError(t, err)
	accepting := rt.IsAccepting()
	for _, ch := range word {
		accepting, err = rt.Process(ch, nil)
		require.NoError(t, err)
	}
	return accepting
}

func TestPowersetEquivalence(t *testing.T) {
	n := buildAB(t)
	dfa, err := Build(n)
	require.NoError(t, err)

	cases := []struct {
		word   string
		accept bool
	}{
		{"ab", true},
		{"aab", true},
		{"babab", true},
		{"a", false},
		{"b", false},
		{"aba", false},
		{"abab", true},
	}

	for _, c := range cases {
		require.Equal(t, c.accept, run(t, dfa, c.word), "word %q", c.word)
	}
}

func TestPowersetCombinesEnterActionsAndFlags(t *testing.T) {
	n := NewNFA()

	var trace []rune
	_ = n.BeginState()
	n.SetStartState()
	n.SetFlags(0x1)
	n.SetEnterAction(func(ch rune, ctx interface{}) { trace = append(trace, ch) })
	s1 := n.CreateState()
	s2 := n.CreateState()
	n.AddTransition('x', s1)
	n.AddTransition('x', s2)
	n.EndState()

	n.BeginStateAt(s1)
	n.SetAccepting(true)
	n.SetFlags(0x2)
	n.SetEnterAction(func(ch rune, ctx interface{}) { trace = append(trace, ch+1) })
	n.EndState()

	n.BeginStateAt(s2)
	n.SetFlags(0x4)
	n.SetEnterAction(func(ch rune, ctx interface{}) { trace = append(trace, ch+2) })
	n.EndState()

	dfa, err := Build(n)
	require.NoError(t, err)

	rt, err := NewRuntime(dfa)
	require.NoError(t, err)
	accepting, err := rt.Process('x', nil)
	require.NoError(t, err)
	require.True(t, accepting)
	require.Equal(t, []rune{'x' + 1, 'x' + 2}, trace)
	require.Equal(t, uint(0x6), rt.Flags())
}

func TestDeadEndDetection(t *testing.T) {
	d := NewDFA()
	dead := d.BeginState()
	d.EndState()
	live := d.BeginState()
	d.SetAccepting(true)
	d.SetTransition('a', dead)
	d.EndState()
	d.BeginStateAt(live)
	d.SetStartState()
	d.EndState()

	require.True(t, d.IsDeadEnd(dead))
	require.False(t, d.IsDeadEnd(live))
}

func TestClearFlagsClearsOnlyMaskedBits(t *testing.T) {
	d := NewDFA()
	d.BeginState()
	d.SetFlags(0b111)
	require.NoError(t, d.ClearFlags(0b010))
	require.Equal(t, uint(0b101), d.Flags(0))
}

func TestRuntimeUnknownSymbolErrors(t *testing.T) {
	d := NewDFA()
	d.BeginState()
	d.SetStartState()
	d.EndState()

	rt, err := NewRuntime(d)
	require.NoError(t, err)
	_, err = rt.Process('z', nil)
	require.Error(t, err)
}

func TestBuildWithoutStartStateFails(t *testing.T) {
	n := NewNFA()
	n.CreateState()
	_, err := Build(n)
	require.Error(t, err)
}
