package events_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out events to subscribers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two subscribers filter differently.", testID)
		{
			evts := events.New[int]()

			all := evts.Acquire("all", nil)
			even := evts.Acquire("even", func(v int) bool { return v%2 == 0 })

			for i := 1; i <= 4; i++ {
				evts.Send(i)
			}

			if len(all) != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould deliver every event to an unfiltered subscriber : got %d", failed, testID, len(all))
			}
			t.Logf("\t%s\tTest %d:\tShould deliver every event to an unfiltered subscriber.", success, testID)

			if len(even) != 2 || <-even != 2 || <-even != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould deliver only accepted events.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould deliver only accepted events.", success, testID)

			if err := evts.Release("all"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to release a subscriber : %s", failed, testID, err)
			}
			for range all {
			}
			t.Logf("\t%s\tTest %d:\tShould close the released channel.", success, testID)

			if err := evts.Release("all"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail releasing an unknown id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail releasing an unknown id.", success, testID)

			evts.Shutdown()
			if evts.Len() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould remove every subscriber on shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould remove every subscriber on shutdown.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a subscriber stops reading.", testID)
		{
			evts := events.New[int]()
			ch := evts.Acquire("slow", nil)

			for i := 0; i < 1000; i++ {
				evts.Send(i)
			}

			if len(ch) != cap(ch) {
				t.Fatalf("\t%s\tTest %d:\tShould drop events once the buffer is full : got %d", failed, testID, len(ch))
			}
			t.Logf("\t%s\tTest %d:\tShould drop events once the buffer is full without blocking.", success, testID)
		}
	}
}
