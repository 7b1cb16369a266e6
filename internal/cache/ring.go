package cache

// alertRing is a fixed-capacity circular buffer of rendered alert lines.
// Once full, every push evicts the oldest entry in the same step, so the
// length never exceeds the capacity. Not safe for concurrent use; the
// StateCache serializes access.
type alertRing struct {
	buf  []string
	head int // next write slot
	size int
}

func newAlertRing(capacity int) *alertRing {
	if capacity <= 0 {
		panic("cache: alert ring capacity must be positive")
	}
	return &alertRing{buf: make([]string, capacity)}
}

func (r *alertRing) push(line string) {
	r.buf[r.head] = line
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// snapshot returns the entries newest first.
func (r *alertRing) snapshot() []string {
	out := make([]string, 0, r.size)
	for i := 1; i <= r.size; i++ {
		out = append(out, r.buf[(r.head-i+len(r.buf))%len(r.buf)])
	}
	return out
}
