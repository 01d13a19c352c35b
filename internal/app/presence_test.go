package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coup/internal/domain"
)

func TestReconnectIsIdempotent(t *testing.T) {
	svc := newTestService(50)
	sess := startedGame(t, svc, "u1", "u2")

	_, err := svc.MarkDisconnected(sess, "u2", 10)
	require.NoError(t, err)
	require.False(t, sess.PlayerByID("u2").Connected)
	require.Equal(t, int64(10+60), sess.PlayerByID("u2").GraceDeadline)

	events, err := svc.MarkConnected(sess, "u2", 20)
	require.NoError(t, err)
	require.True(t, hasEvent(events, EventPlayerReconnected))
	require.Zero(t, sess.PlayerByID("u2").GraceDeadline)

	// A second connect for the same player changes nothing.
	events, err = svc.MarkConnected(sess, "u2", 21)
	require.NoError(t, err)
	require.Empty(t, events)
	require.True(t, sess.PlayerByID("u2").Connected)
}

func TestDisconnectInLobbyRemovesPlayer(t *testing.T) {
	svc := newTestService(51)
	sess := newLobby(t, svc, "u1", "u2")

	events, err := svc.MarkDisconnected(sess, "u2", 5)
	require.NoError(t, err)
	require.True(t, hasEvent(events, EventPlayerLeft))
	require.Nil(t, sess.PlayerByID("u2"))
	require.Len(t, sess.Players, 1)
}

func TestGraceExpiryForfeitsAndRevealsHand(t *testing.T) {
	svc := newTestService(52)
	sess := startedGame(t, svc, "u1", "u2", "u3")
	setTurn(sess, "u1")

	_, err := svc.MarkDisconnected(sess, "u3", 10)
	require.NoError(t, err)
	deadline := sess.PlayerByID("u3").GraceDeadline

	_, fired := svc.HandleGraceExpiry(sess, "u3", deadline-1)
	require.False(t, fired, "grace has not elapsed yet")

	events, fired := svc.HandleGraceExpiry(sess, "u3", deadline)
	require.True(t, fired)
	require.True(t, hasEvent(events, EventPlayerRemoved))

	p3 := sess.PlayerByID("u3")
	require.False(t, p3.Active)
	require.Zero(t, p3.Influence())
	for _, c := range p3.Hand {
		require.True(t, c.Revealed)
	}
	require.Equal(t, domain.PhaseInProgress, sess.Phase, "two players remain")
}

func TestGraceExpiryOfSoleResponderResolvesAction(t *testing.T) {
	// Two-player game: the only eligible responder disconnects while an
	// action awaits responses. Their forfeit counts as a pass and the
	// action executes.
	svc := newTestService(53)
	sess := startedGame(t, svc, "u1", "u2", "u3")
	setTurn(sess, "u1")
	sess.Players[sess.SeatOf("u3")].Active = false

	_, err := svc.ProposeAction(sess, "u1", domain.ActionTax, "", 0)
	require.NoError(t, err)

	_, err = svc.MarkDisconnected(sess, "u2", 1)
	require.NoError(t, err)
	deadline := sess.PlayerByID("u2").GraceDeadline

	events, fired := svc.HandleGraceExpiry(sess, "u2", deadline)
	require.True(t, fired)
	require.True(t, hasEvent(events, EventActionExecuted))
	require.Nil(t, sess.Pending)
	require.Equal(t, 5, sess.PlayerByID("u1").Coins)
	require.Equal(t, domain.PhaseFinished, sess.Phase, "only u1 left standing")
	require.Equal(t, "u1", sess.WinnerID)
}

func TestGraceExpiryOfInitiatorAbandonsAction(t *testing.T) {
	svc := newTestService(54)
	sess := startedGame(t, svc, "u1", "u2", "u3")
	setTurn(sess, "u1")

	_, err := svc.ProposeAction(sess, "u1", domain.ActionTax, "", 0)
	require.NoError(t, err)

	_, err = svc.MarkDisconnected(sess, "u1", 1)
	require.NoError(t, err)
	deadline := sess.PlayerByID("u1").GraceDeadline

	events, fired := svc.HandleGraceExpiry(sess, "u1", deadline)
	require.True(t, fired)
	require.True(t, hasEvent(events, EventActionCancelled))
	require.Nil(t, sess.Pending)
	require.Equal(t, StartingCoins, sess.PlayerByID("u1").Coins, "abandoned tax pays nothing")
	require.Equal(t, "u2", sess.CurrentActor().UserID)
}

func TestGraceExpiryOfBlockerExecutesAction(t *testing.T) {
	svc := newTestService(55)
	sess := startedGame(t, svc, "u1", "u2", "u3")
	setTurn(sess, "u1")

	_, err := svc.ProposeAction(sess, "u1", domain.ActionForeignAid, "", 0)
	require.NoError(t, err)
	_, err = svc.SubmitResponse(sess, "u2", domain.ResponseBlock, "", 1)
	require.NoError(t, err)

	_, err = svc.MarkDisconnected(sess, "u2", 2)
	require.NoError(t, err)
	deadline := sess.PlayerByID("u2").GraceDeadline

	events, fired := svc.HandleGraceExpiry(sess, "u2", deadline)
	require.True(t, fired)
	require.True(t, hasEvent(events, EventActionExecuted))
	require.Equal(t, StartingCoins+2, sess.PlayerByID("u1").Coins, "abandoned block lets the aid through")
}

func TestGraceExpiryTransfersLeadership(t *testing.T) {
	svc := newTestService(56)
	sess := startedGame(t, svc, "u1", "u2", "u3")
	require.Equal(t, "u1", sess.LeaderID)

	_, err := svc.MarkDisconnected(sess, "u1", 1)
	require.NoError(t, err)
	events, fired := svc.HandleGraceExpiry(sess, "u1", sess.PlayerByID("u1").GraceDeadline)
	require.True(t, fired)
	require.True(t, hasEvent(events, EventLeaderChanged))
	require.Equal(t, "u2", sess.LeaderID)
}

func TestEmptySessionDeletionWindow(t *testing.T) {
	svc := newTestService(57)
	sess := startedGame(t, svc, "u1", "u2")

	_, err := svc.MarkDisconnected(sess, "u1", 10)
	require.NoError(t, err)
	require.False(t, svc.ShouldDelete(sess, 10))

	_, err = svc.MarkDisconnected(sess, "u2", 12)
	require.NoError(t, err)
	require.NotZero(t, sess.EmptyDeadline)
	require.False(t, svc.ShouldDelete(sess, sess.EmptyDeadline-1))
	require.True(t, svc.ShouldDelete(sess, sess.EmptyDeadline))

	// A reconnect disarms the window.
	deadline := sess.EmptyDeadline
	_, err = svc.MarkConnected(sess, "u1", deadline-5)
	require.NoError(t, err)
	require.False(t, svc.ShouldDelete(sess, deadline))
}
