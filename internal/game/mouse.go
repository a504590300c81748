package game

type queuedClick struct {
	x, y int
	at   int64
}

// clickBufferMs is how long a click waits for the session to accept it,
// e.g. while the server has not assigned the local entity yet.
const clickBufferMs = 500

// clickQueue buffers primary clicks between frames.
type clickQueue struct {
	clicks []queuedClick
}

func (q *clickQueue) push(x, y int, at int64) {
	q.clicks = append(q.clicks, queuedClick{x: x, y: y, at: at})
}

// peek returns the oldest queued click position.
// It returns ok=false if there is no click queued.
func (q *clickQueue) peek() (x, y int, ok bool) {
	if len(q.clicks) == 0 {
		return 0, 0, false
	}
	click := q.clicks[0]
	return click.x, click.y, true
}

// pop consumes the oldest queued click.
func (q *clickQueue) pop() bool {
	if len(q.clicks) == 0 {
		return false
	}
	q.clicks = q.clicks[1:]
	return true
}

// latest keeps only the newest click. A later click replaces the walk of
// an earlier one, so older clicks would only cost a route each.
func (q *clickQueue) latest() {
	if len(q.clicks) > 1 {
		q.clicks = q.clicks[len(q.clicks)-1:]
	}
}

func (q *clickQueue) prune(now int64) {
	if len(q.clicks) == 0 {
		return
	}
	keep := q.clicks[:0]
	for _, click := range q.clicks {
		if now-click.at <= clickBufferMs {
			keep = append(keep, click)
		}
	}
	q.clicks = keep
}

func (q *clickQueue) len() int {
	return len(q.clicks)
}
