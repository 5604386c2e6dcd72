// Package chanutil provides small channel-composition helpers used where the
// design calls for a channel that must never block its sender.
package chanutil

// Unbounded returns a pair of channels backed by a growable in-memory queue:
// sends to in never block, and receives from out observe every sent value in
// order. Closing in drains any buffered values through out and then closes
// it. Used for the PTY input channel (keystrokes are low-volume but a slow
// writer loop must never stall a rule or trigger that's sending keys) and for
// queue subscriber delivery (every enqueued item must reach a live
// subscriber, not be dropped under a bounded buffer).
func Unbounded[T any]() (chan<- T, <-chan T) {
	in := make(chan T)
	out := make(chan T)

	go func() {
		var pending []T
		defer close(out)

		for {
			if len(pending) == 0 {
				v, ok := <-in
				if !ok {
					return
				}
				pending = append(pending, v)
				continue
			}

			select {
			case v, ok := <-in:
				if !ok {
					for _, item := range pending {
						out <- item
					}
					return
				}
				pending = append(pending, v)
			case out <- pending[0]:
				pending = pending[1:]
			}
		}
	}()

	return in, out
}
