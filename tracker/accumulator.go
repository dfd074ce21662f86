package tracker

// advance computes the new accumulator and checkpoint for one poll.
//
// When playback is confirmed active, the whole interval since the
// previous checkpoint counts as listening time. On any other
// definitive answer the accumulator is untouched but the checkpoint
// still moves to now, so attribution error is bounded by one poll
// interval. Callers must not invoke advance at all for transient
// errors or unresolved 401s: holding the checkpoint there defers
// attribution to the next successful poll instead of misreading an
// outage as idle time.
func advance(listenTime, lastCheck, now int64, playing bool) (newListenTime, newLastCheck int64) {
	if playing {
		return listenTime + (now - lastCheck), now
	}
	return listenTime, now
}
