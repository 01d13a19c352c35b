package domain

// NextActiveSeat returns the next seat index after "from" holding an active
// player, wrapping around the table. Advancing by seat index rather than by
// player identity keeps this correct when the seat at "from" was just
// eliminated.
func NextActiveSeat(s *Session, from int) (int, error) {
	n := len(s.Players)
	if n == 0 {
		return 0, ErrNoActivePlayers
	}
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		if s.Players[seat].Active {
			return seat, nil
		}
	}
	return 0, ErrNoActivePlayers
}
