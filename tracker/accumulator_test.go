package tracker

import "testing"

func TestAdvance(t *testing.T) {
	testCases := []struct {
		name           string
		listenTime     int64
		lastCheck      int64
		now            int64
		playing        bool
		wantListenTime int64
		wantLastCheck  int64
	}{
		{
			name:           "playing attributes the full interval",
			listenTime:     0,
			lastCheck:      1_000_000_000,
			now:            3_500_000_000,
			playing:        true,
			wantListenTime: 2_500_000_000,
			wantLastCheck:  3_500_000_000,
		},
		{
			name:           "playing adds onto prior listen time",
			listenTime:     5_000_000_000,
			lastCheck:      10_000_000_000,
			now:            11_000_000_000,
			playing:        true,
			wantListenTime: 6_000_000_000,
			wantLastCheck:  11_000_000_000,
		},
		{
			name:           "not playing leaves the accumulator alone",
			listenTime:     5_000_000_000,
			lastCheck:      10_000_000_000,
			now:            11_000_000_000,
			playing:        false,
			wantListenTime: 5_000_000_000,
			wantLastCheck:  11_000_000_000,
		},
		{
			name:           "zero elapsed interval is a no-op either way",
			listenTime:     7,
			lastCheck:      100,
			now:            100,
			playing:        true,
			wantListenTime: 7,
			wantLastCheck:  100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotListen, gotCheck := advance(tc.listenTime, tc.lastCheck, tc.now, tc.playing)
			if gotListen != tc.wantListenTime {
				t.Errorf("listen time: expected %d, got %d", tc.wantListenTime, gotListen)
			}
			if gotCheck != tc.wantLastCheck {
				t.Errorf("checkpoint: expected %d, got %d", tc.wantLastCheck, gotCheck)
			}
		})
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	listen, check := int64(0), int64(0)
	states := []bool{true, false, true, true, false, false, true}

	now := int64(0)
	for i, playing := range states {
		now += int64(i+1) * 1_000_000_000
		newListen, newCheck := advance(listen, check, now, playing)
		if newListen < listen {
			t.Fatalf("accumulator decreased from %d to %d at step %d", listen, newListen, i)
		}
		if newCheck != now {
			t.Fatalf("checkpoint did not advance to now at step %d", i)
		}
		listen, check = newListen, newCheck
	}
}
