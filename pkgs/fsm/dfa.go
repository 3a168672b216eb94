package fsm

import "fmt"

type dState struct {
	accepting bool
	flags     uint
	enter     EnterAction
	name      string
}

// DFA is a deterministic finite automaton: the same per-state attributes as
// NFA, but each (state, symbol) pair maps to at most one target state. DFA
// supports the same fluent Begin/EndState construction API as NFA so a
// scanner-builder can either hand-build small auxiliary automata (comment
// eaters) directly or obtain one from Build (powerset construction).
type DFA struct {
	states      []dState
	transitions []map[rune]uint
	cur         uint
	curValid    bool
	start       uint
	startValid  bool
	names       map[string]uint
}

// NewDFA creates an empty DFA.
func NewDFA() *DFA {
	return &DFA{names: make(map[string]uint)}
}

// CreateState allocates a new state and returns its handle.
func (d *DFA) CreateState() uint {
	d.states = append(d.states, dState{})
	d.transitions = append(d.transitions, nil)
	return uint(len(d.states) - 1)
}

// BeginState creates a new state and makes it current, returning its
// handle.
func (d *DFA) BeginState() uint {
	h := d.CreateState()
	d.cur = h
	d.curValid = true
	return h
}

// BeginStateAt makes an existing state current, returning the previously
// current handle (InvalidState if none).
func (d *DFA) BeginStateAt(state uint) (uint, error) {
	if state >= uint(len(d.states)) {
		return InvalidState, fmt.Errorf("fsm: unable to begin state, invalid state handle: %d", state)
	}
	prev := InvalidState
	if d.curValid {
		prev = d.cur
	}
	d.cur = state
	d.curValid = true
	return prev, nil
}

// EndState clears the current-state cursor.
func (d *DFA) EndState() { d.curValid = false }

func (d *DFA) ensureCur() error {
	if !d.curValid {
		return fmt.Errorf("fsm: unable to process operation, no active state")
	}
	return nil
}

// SetAccepting marks the current state as accepting or not.
func (d *DFA) SetAccepting(b bool) error {
	if err := d.ensureCur(); err != nil {
		return err
	}
	d.states[d.cur].accepting = b
	return nil
}

// IsAccepting reports whether the given state is accepting.
func (d *DFA) IsAccepting(state uint) bool {
	if state >= uint(len(d.states)) {
		return false
	}
	return d.states[state].accepting
}

// SetStartState designates the current state as the start state.
func (d *DFA) SetStartState() error {
	if err := d.ensureCur(); err != nil {
		return err
	}
	d.start = d.cur
	d.startValid = true
	return nil
}

// StartState returns the start state handle and whether one was set.
func (d *DFA) StartState() (uint, bool) { return d.start, d.startValid }

// SetFlags replaces the current state's flag bitmask.
func (d *DFA) SetFlags(bits uint) error {
	if err := d.ensureCur(); err != nil {
		return err
	}
	d.states[d.cur].flags = bits
	return nil
}

// Flags returns the flag bitmask of the given state.
func (d *DFA) Flags(state uint) uint {
	if state >= uint(len(d.states)) {
		return 0
	}
	return d.states[state].flags
}

// ClearFlags clears the bits in bitmask from the current state's flags.
func (d *DFA) ClearFlags(bitmask uint) error {
	if err := d.ensureCur(); err != nil {
		return err
	}
	d.states[d.cur].flags &^= bitmask
	return nil
}

// SetEnterAction sets the enter action of the current state.
func (d *DFA) SetEnterAction(action EnterAction) error {
	if err := d.ensureCur(); err != nil {
		return err
	}
	d.states[d.cur].enter = action
	return nil
}

// EnterAction returns the enter action of the given state, or nil.
func (d *DFA) EnterAction(state uint) EnterAction {
	if state >= uint(len(d.states)) {
		return nil
	}
	return d.states[state].enter
}

// SetName assigns a lookup name to the current state.
func (d *DFA) SetName(name string) error {
	if err := d.ensureCur(); err != nil {
		return err
	}
	d.states[d.cur].name = name
	d.names[name] = d.cur
	return nil
}

// State looks up a named state's handle.
func (d *DFA) State(name string) (uint, bool) {
	h, ok := d.names[name]
	return h, ok
}

// SetTransition sets the current state's transition on symbol to target,
// returning the previous target if one was set (InvalidState otherwise).
func (d *DFA) SetTransition(symbol rune, target uint) (uint, error) {
	if err := d.ensureCur(); err != nil {
		return InvalidState, err
	}
	if d.transitions[d.cur] == nil {
		d.transitions[d.cur] = make(map[rune]uint)
	}
	prev, ok := d.transitions[d.cur][symbol]
	if !ok {
		prev = InvalidState
	}
	d.transitions[d.cur][symbol] = target
	return prev, nil
}

// Transition returns the target of (state, symbol), or InvalidState if
// none is defined.
func (d *DFA) Transition(state uint, symbol rune) uint {
	if state >= uint(len(d.transitions)) || d.transitions[state] == nil {
		return InvalidState
	}
	t, ok := d.transitions[state][symbol]
	if !ok {
		return InvalidState
	}
	return t
}

// HasTransition reports whether (state, symbol) has a defined target.
func (d *DFA) HasTransition(state uint, symbol rune) bool {
	return d.Transition(state, symbol) != InvalidState
}

// NumStates returns the number of states.
func (d *DFA) NumStates() int { return len(d.states) }

// Symbols returns every symbol used as a transition label anywhere in the
// automaton.
func (d *DFA) Symbols() []rune {
	seen := make(map[rune]struct{})
	for _, t := range d.transitions {
		for sym := range t {
			seen[sym] = struct{}{}
		}
	}
	out := make([]rune, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	return out
}

// IsDeadEnd reports whether state is an accepting-free sink: not
// accepting, and with no outgoing transitions at all. The scanner uses
// this to detect "no valid token starts here".
func (d *DFA) IsDeadEnd(state uint) bool {
	if state >= uint(len(d.states)) {
		return false
	}
	if d.states[state].accepting {
		return false
	}
	return len(d.transitions[state]) == 0
}

// Runtime is a cursor over a DFA, driven explicitly by a caller (the
// scanner) one symbol at a time.
type Runtime struct {
	dfa *DFA
	cur uint
}

// NewRuntime creates a runtime cursor for dfa, initially reset to its
// start state.
func NewRuntime(dfa *DFA) (*Runtime, error) {
	start, ok := dfa.StartState()
	if !ok {
		return nil, fmt.Errorf("fsm: automaton has no start state")
	}
	return &Runtime{dfa: dfa, cur: start}, nil
}

// Reset moves the cursor back to the start state.
func (r *Runtime) Reset() {
	start, _ := r.dfa.StartState()
	r.cur = start
}

// State returns the current state handle.
func (r *Runtime) State() uint { return r.cur }

// IsAccepting reports whether the current state is accepting.
func (r *Runtime) IsAccepting() bool { return r.dfa.IsAccepting(r.cur) }

// IsDeadEnd reports whether the current state is a dead end.
func (r *Runtime) IsDeadEnd() bool { return r.dfa.IsDeadEnd(r.cur) }

// Flags returns the current state's flag bitmask.
func (r *Runtime) Flags() uint { return r.dfa.Flags(r.cur) }

// Process advances the cursor on symbol, invokes the target state's enter
// action (passing ctx through) and reports whether the new state is
// accepting. A symbol with no transition defined from the current state
// is always an error, never a silent out-of-range index.
func (r *Runtime) Process(symbol rune, ctx interface{}) (bool, error) {
	target := r.dfa.Transition(r.cur, symbol)
	if target == InvalidState {
		return false, fmt.Errorf("fsm: no transition for symbol %q from state %d", symbol, r.cur)
	}
	r.cur = target
	if action := r.dfa.EnterAction(target); action != nil {
		action(symbol, ctx)
	}
	return r.dfa.IsAccepting(target), nil
}
