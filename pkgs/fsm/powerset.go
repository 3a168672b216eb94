package fsm

import (
	"fmt"
	"sort"
)

// subsetKey turns a set of NFA state handles into a stable, comparable map
// key, so previously-seen subsets can be recognized regardless of
// insertion order.
func subsetKey(ss map[uint]struct{}) string {
	ids := make([]uint, 0, len(ss))
	for s := range ss {
		ids = append(ids, s)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	key := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		key = append(key, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	}
	return string(key)
}

// Build converts an NFA into an equivalent DFA via powerset (subset)
// construction. The DFA's start state represents the singleton subset
// {nfa.start}; states are added to a worklist until a pass adds neither a
// new state nor a new transition. Build fails if collapsing the NFA
// produces an ambiguous transition — i.e. the NFA was not well-formed for
// this construction.
func Build(nfa *NFA) (*DFA, error) {
	start, ok := nfa.StartState()
	if !ok {
		return nil, fmt.Errorf("fsm: non-deterministic automaton does not have a defined start state")
	}

	dfa := NewDFA()
	subsets := make(map[uint]map[uint]struct{})
	keyToState := make(map[string]uint)

	startSet := map[uint]struct{}{start: {}}
	startHandle := dfa.BeginState()
	dfa.SetStartState()
	dfa.SetAccepting(isAccepting(nfa, startSet))
	dfa.SetEnterAction(buildEnterAction(nfa, startSet))
	dfa.SetFlags(combineFlags(nfa, startSet))
	dfa.EndState()
	subsets[startHandle] = startSet
	keyToState[subsetKey(startSet)] = startHandle

	symbols := nfa.Symbols()

	for {
		addedStates, addedTransitions := 0, 0

		workList := make([]uint, 0, len(subsets))
		for s := range subsets {
			workList = append(workList, s)
		}
		sort.Slice(workList, func(i, j int) bool { return workList[i] < workList[j] })

		for _, curState := range workList {
			curSet := subsets[curState]
			for _, ch := range symbols {
				union := make(map[uint]struct{})
				for sub := range curSet {
					for _, t := range nfa.Transitions(sub, ch) {
						union[t] = struct{}{}
					}
				}

				key := subsetKey(union)
				targetState, found := keyToState[key]
				if !found && len(union) > 0 {
					targetState = dfa.BeginState()
					dfa.SetAccepting(isAccepting(nfa, union))
					dfa.SetEnterAction(buildEnterAction(nfa, union))
					dfa.SetFlags(combineFlags(nfa, union))
					dfa.EndState()
					subsets[targetState] = union
					keyToState[key] = targetState
					addedStates++
				} else if !found {
					// Empty union: no NFA transition on this symbol from
					// any substate. No DFA state/transition is added; the
					// scanner-builder's dead-end wiring is responsible for
					// covering unspecified symbols explicitly.
					continue
				}

				if dfa.HasTransition(curState, ch) {
					if dfa.Transition(curState, ch) != targetState {
						return nil, fmt.Errorf("fsm: ambiguous transition collapsing non-deterministic automaton on symbol %q", ch)
					}
				} else {
					dfa.BeginStateAt(curState)
					dfa.SetTransition(ch, targetState)
					dfa.EndState()
					addedTransitions++
				}
			}
		}

		if addedStates == 0 && addedTransitions == 0 {
			break
		}
	}

	return dfa, nil
}

func isAccepting(nfa *NFA, subset map[uint]struct{}) bool {
	for s := range subset {
		if nfa.IsAccepting(s) {
			return true
		}
	}
	return false
}

func combineFlags(nfa *NFA, subset map[uint]struct{}) uint {
	var flags uint
	for s := range subset {
		flags |= nfa.Flags(s)
	}
	return flags
}

// buildEnterAction composes, in ascending-state-handle order (state
// handles are allocated in creation order, so this is deterministic),
// every non-nil enter action of the states in subset. Zero actions yields
// nil; one yields that action unwrapped; more are invoked left-to-right
// with the same (symbol, ctx) arguments.
func buildEnterAction(nfa *NFA, subset map[uint]struct{}) EnterAction {
	ids := make([]uint, 0, len(subset))
	for s := range subset {
		ids = append(ids, s)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var actions []EnterAction
	for _, s := range ids {
		if a := nfa.EnterAction(s); a != nil {
			actions = append(actions, a)
		}
	}

	switch len(actions) {
	case 0:
		return nil
	case 1:
		return actions[0]
	default:
		return func(sym rune, ctx interface{}) {
			for _, a := range actions {
				a(sym, ctx)
			}
		}
	}
}
