package memory

// journal collects undo actions for writes made inside a DB transaction.
// Outside a transaction (or for stores used standalone) it is inactive and
// records nothing.
type journal struct {
	active bool
	undo   []func()
}

func (j *journal) begin() {
	j.active = true
	j.undo = j.undo[:0]
}

// record registers fn to revert the write that was just applied.
func (j *journal) record(fn func()) {
	if j == nil || !j.active {
		return
	}
	j.undo = append(j.undo, fn)
}

// rollback reverts every recorded write, newest first.
func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.active = false
	j.undo = j.undo[:0]
}

func (j *journal) commit() {
	j.active = false
	j.undo = j.undo[:0]
}
