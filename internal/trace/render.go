package trace

// Row and header formats are fixed; downstream tooling greps this layout.
// Columns: CPU, elapsed msecs, delta msecs, actor, event, actor id,
// CPU time as seconds.hundredths, input blocks, output blocks.
const (
	headerFormat = "\n\n%3s %10s %10s %-24s %-40s %5s %6s %5s %5s\n"
	rowFormat    = "%3d %10d %10d %-24s %-40s %5d %4d.%02d %5d %5d\n"
)

// Render walks t once, non-destructively, and writes the recorded events
// to sink. The walk starts at the current cursor (the oldest entry of a
// wrapped table, the empty tail of one that has not wrapped) and visits
// exactly capacity slots; slots with a zero cycle sample are skipped.
//
// Each entry's cycle sample is converted to milliseconds with the clock's
// frequency, and its delta is the gap to the previous non-empty entry
// (zero when there is no previous entry or time appears to go backward).
//
// thresholdMS == 0 renders every entry. A positive threshold renders only
// entries whose delta exceeds it, plus the immediately preceding entry as
// a landmark when it was not itself rendered, so the reader always sees
// where a large gap began. A trailer reports the span between the first
// and last entries seen, rendered or not.
//
// Render takes no lock and tolerates concurrent writers: a slot being
// filled mid-walk reads as empty or stale, never crashes the walk.
// Rendering the same table twice with no intervening writes produces
// identical output.
func Render(t *Table, clock Clock, sink Sink, thresholdMS uint64) {
	sink.Printf(headerFormat,
		"CPU", "msecs", "delta", "process",
		"event", "PID", "CPUtime", "IBlks", "OBlks")

	var (
		firstMS   uint64
		lastMS    uint64
		total     uint64
		seen      bool
		prev      Event
		prevMS    uint64
		prevDelta uint64
		prevShown bool
		havePrev  bool
	)

	if t.slots != nil {
		freq := clock.Frequency()
		curr := t.Cursor()
		i := curr
		for n := uint64(0); n < t.capacity; n++ {
			ev := t.slots[i] // racy copy; zero Cycles means skip
			i = (i + 1) % int(t.capacity)
			if ev.Cycles == 0 {
				continue
			}
			ms := ev.Cycles * 1000 / freq
			var delta uint64
			if lastMS != 0 && ms > lastMS {
				delta = ms - lastMS
			}
			shown := false
			if thresholdMS == 0 {
				renderRow(sink, &ev, ms, delta)
				shown = true
			} else if delta > thresholdMS {
				// Print the previous entry as a landmark, even if it
				// fell below the threshold.
				if havePrev && !prevShown {
					renderRow(sink, &prev, prevMS, prevDelta)
				}
				renderRow(sink, &ev, ms, delta)
				shown = true
			}
			if !seen {
				seen = true
				firstMS = ms
			}
			prev, prevMS, prevDelta, prevShown, havePrev = ev, ms, delta, shown, true
			lastMS = ms
		}
	}

	if seen && lastMS > firstMS {
		total = lastMS - firstMS
	}
	sink.Printf("Total measured time: %d msecs\n", total)
}

func renderRow(sink Sink, ev *Event, ms, delta uint64) {
	sink.Printf(rowFormat,
		ev.CPU, ms, delta, ev.ActorName(), ev.EventName(), ev.ActorID,
		ev.CPUTime/1000000, (ev.CPUTime%1000000)/10000,
		ev.InBlock, ev.OutBlock)
}
