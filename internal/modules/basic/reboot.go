package basic

// rebootTimer is a one-shot deadline: idle until armed, then due exactly once
// when the clock reaches the deadline. There is no disarm.
type rebootTimer struct {
	armed    bool
	deadline uint64
}

// arm schedules the deadline at now+delay. An armed timer keeps its deadline;
// arm reports whether a new deadline was set.
func (r *rebootTimer) arm(now, delay uint64) bool {
	if r.armed {
		return false
	}
	r.armed = true
	r.deadline = now + delay
	return true
}

// due reports true once, on the first call with now >= deadline.
func (r *rebootTimer) due(now uint64) bool {
	if !r.armed || now < r.deadline {
		return false
	}
	r.armed = false
	return true
}
