package lang

// frame is one block activation's bindings.
type frame struct {
	vars   map[string]Value
	parent int // index of the enclosing frame, -1 for the root
}

// scope is a chain of frames stored in an arena. Frames nest strictly with
// block structure, so the current frame is always the last one and popping
// truncates the arena.
type scope struct {
	frames []frame
	cur    int
}

// newScope returns a scope whose root frame holds a copy of bindings.
func newScope(bindings map[string]Value) *scope {
	root := frame{vars: make(map[string]Value, len(bindings)), parent: -1}

	for name, v := range bindings {
		root.vars[name] = v
	}

	return &scope{frames: []frame{root}}
}

// push enters a new frame nested in the current one.
func (s *scope) push() {
	s.frames = append(s.frames, frame{parent: s.cur})
	s.cur = len(s.frames) - 1
}

// pop discards the current frame and its bindings.
func (s *scope) pop() {
	parent := s.frames[s.cur].parent
	clear(s.frames[s.cur].vars)
	s.frames = s.frames[:s.cur]
	s.cur = parent
}

// find returns the index of the innermost frame binding name, or -1.
func (s *scope) find(name string) int {
	for i := s.cur; i >= 0; i = s.frames[i].parent {
		if _, ok := s.frames[i].vars[name]; ok {
			return i
		}
	}

	return -1
}

// lookup walks outward from the current frame.
func (s *scope) lookup(name string) (Value, bool) {
	i := s.find(name)
	if i < 0 {
		return None, false
	}

	return s.frames[i].vars[name], true
}

// declare binds name in the current frame, shadowing any outer binding.
func (s *scope) declare(name string, v Value) {
	f := &s.frames[s.cur]
	if f.vars == nil {
		f.vars = make(map[string]Value)
	}

	f.vars[name] = v
}

// declareOrAssign updates name in the frame that already binds it, or
// declares it in the current frame when no frame does.
func (s *scope) declareOrAssign(name string, v Value) {
	if i := s.find(name); i >= 0 {
		s.frames[i].vars[name] = v

		return
	}

	s.declare(name, v)
}

// depth returns the number of frames on the chain.
func (s *scope) depth() int { return len(s.frames) }
