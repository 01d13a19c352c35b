package domain

import "testing"

func sessionWithActive(flags ...bool) *Session {
	s := &Session{Phase: PhaseInProgress}
	for i, active := range flags {
		s.Players = append(s.Players, &Player{
			UserID: string(rune('A' + i)),
			Active: active,
		})
	}
	return s
}

func TestNextActiveSeat(t *testing.T) {
	tests := []struct {
		name    string
		active  []bool
		from    int
		want    int
		wantErr error
	}{
		{name: "simple advance", active: []bool{true, true, true}, from: 0, want: 1},
		{name: "skips eliminated", active: []bool{true, false, true}, from: 0, want: 2},
		{name: "wraps around", active: []bool{true, true, false}, from: 1, want: 0},
		{name: "from eliminated seat", active: []bool{false, true, true}, from: 0, want: 1},
		{name: "single survivor wraps to self", active: []bool{false, true, false}, from: 1, want: 1},
		{name: "none active", active: []bool{false, false}, from: 0, wantErr: ErrNoActivePlayers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessionWithActive(tt.active...)
			got, err := NextActiveSeat(s, tt.from)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("seat = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFullRotationVisitsEveryActivePlayerOnce(t *testing.T) {
	s := sessionWithActive(true, false, true, true, false)
	seen := make(map[int]int)
	seat := 0
	for i := 0; i < 3; i++ {
		next, err := NextActiveSeat(s, seat)
		if err != nil {
			t.Fatalf("advance error: %v", err)
		}
		seen[next]++
		seat = next
	}
	for _, i := range []int{0, 2, 3} {
		if seen[i] != 1 {
			t.Fatalf("seat %d visited %d times in one rotation", i, seen[i])
		}
	}
}
