package world

// dirtyQueue is the ordered set of chunks waiting for a rebuild. A chunk is
// queued once no matter how many edits touch it before the next Flush.
type dirtyQueue struct {
	order []ChunkKey
	set   map[ChunkKey]struct{}
}

func (q *dirtyQueue) push(k ChunkKey) bool {
	if q.set == nil {
		q.set = make(map[ChunkKey]struct{})
	}
	if _, ok := q.set[k]; ok {
		return false
	}
	q.set[k] = struct{}{}
	q.order = append(q.order, k)
	return true
}

func (q *dirtyQueue) len() int { return len(q.order) }

func (q *dirtyQueue) drain() []ChunkKey {
	out := q.order
	q.order = nil
	q.set = nil
	return out
}
