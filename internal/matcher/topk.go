package matcher

// topK keeps the k best scores in descending order. Equal scores keep
// insertion order, so earlier pool entries win ties.
type topK struct {
	k     int
	items []Scored
}

func newTopK(k int) *topK {
	return &topK{k: k, items: make([]Scored, 0, k)}
}

func (t *topK) offer(s Scored) {
	n := len(t.items)
	if n == t.k && s.Result.Value <= t.items[n-1].Result.Value {
		return
	}

	// First position holding a strictly lower score.
	pos := n
	for i := range t.items {
		if t.items[i].Result.Value < s.Result.Value {
			pos = i
			break
		}
	}

	if n < t.k {
		t.items = append(t.items, Scored{})
	}
	copy(t.items[pos+1:], t.items[pos:len(t.items)-1])
	t.items[pos] = s
}

func (t *topK) best() (Scored, bool) {
	if len(t.items) == 0 {
		return Scored{}, false
	}
	return t.items[0], true
}

func (t *topK) rest() []Scored {
	if len(t.items) <= 1 {
		return nil
	}
	out := make([]Scored, len(t.items)-1)
	copy(out, t.items[1:])
	return out
}
