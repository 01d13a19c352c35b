package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coup/internal/domain"
)

func TestDeadlineAutoPassesNonResponders(t *testing.T) {
	// Three eligible responders, only one passes in time: the deadline
	// resolves the action as if all had passed.
	svc := newTestService(30)
	sess := startedGame(t, svc, "u1", "u2", "u3", "u4")
	setTurn(sess, "u1")

	_, err := svc.ProposeAction(sess, "u1", domain.ActionTax, "", 0)
	require.NoError(t, err)
	_, err = svc.SubmitResponse(sess, "u2", domain.ResponsePass, "", 5)
	require.NoError(t, err)

	gen := sess.Pending.Generation
	events, fired := svc.HandleDeadline(sess, gen, sess.Pending.Deadline)
	require.True(t, fired)
	require.Nil(t, sess.Pending)
	require.Equal(t, 5, sess.PlayerByID("u1").Coins)
	require.True(t, hasEvent(events, EventActionExecuted))
	require.Equal(t, "u2", sess.CurrentActor().UserID)
}

func TestDeadlineForSupersededGenerationIsNoop(t *testing.T) {
	svc := newTestService(31)
	sess := startedGame(t, svc, "u1", "u2")
	setTurn(sess, "u1")

	_, err := svc.ProposeAction(sess, "u1", domain.ActionTax, "", 0)
	require.NoError(t, err)
	staleGen := sess.Pending.Generation

	// A block re-arms the deadline under a new generation.
	_, err = svc.SubmitResponse(sess, "u2", domain.ResponseBlock, domain.RoleDuke, 1)
	require.NoError(t, err)
	require.NotEqual(t, staleGen, sess.Pending.Generation)

	_, fired := svc.HandleDeadline(sess, staleGen, 1000)
	require.False(t, fired)
	require.NotNil(t, sess.Pending, "stale timer must not disturb the block")
	require.Equal(t, domain.ResolutionBlockAttempt, sess.Pending.Kind)
}

func TestBlockDeadlineAcceptsBlock(t *testing.T) {
	svc := newTestService(32)
	sess := startedGame(t, svc, "u1", "u2")
	setTurn(sess, "u1")

	_, err := svc.ProposeAction(sess, "u1", domain.ActionForeignAid, "", 0)
	require.NoError(t, err)
	_, err = svc.SubmitResponse(sess, "u2", domain.ResponseBlock, "", 1)
	require.NoError(t, err)

	events, fired := svc.HandleDeadline(sess, sess.Pending.Generation, sess.Pending.Deadline)
	require.True(t, fired)
	require.Nil(t, sess.Pending)
	require.Equal(t, StartingCoins, sess.PlayerByID("u1").Coins, "blocked foreign aid pays nothing")
	require.True(t, hasEvent(events, EventActionCancelled))
}

func TestExchangeDeadlineKeepsFirstCards(t *testing.T) {
	svc := newTestService(33)
	sess := startedGame(t, svc, "u1", "u2")
	setTurn(sess, "u1")

	_, err := svc.ProposeAction(sess, "u1", domain.ActionExchange, "", 0)
	require.NoError(t, err)
	_, err = svc.SubmitResponse(sess, "u2", domain.ResponsePass, "", 1)
	require.NoError(t, err)
	require.Equal(t, domain.ResolutionExchangeSelect, sess.Pending.Kind)

	wantKept := append([]domain.Card(nil), sess.Pending.Offered[:StartingHandSize]...)
	_, fired := svc.HandleDeadline(sess, sess.Pending.Generation, sess.Pending.Deadline)
	require.True(t, fired)
	require.Nil(t, sess.Pending)

	hand := sess.PlayerByID("u1").Hand
	require.Equal(t, wantKept, hand, "deterministic first-N keep")
	require.Equal(t, domain.TotalCards, sess.CardsInPlay())
}

func TestReturnDeadlineReturnsArbitraryCard(t *testing.T) {
	svc := newTestService(34)
	sess := startedGame(t, svc, "u1", "u2")
	setTurn(sess, "u1")
	setHand(t, sess, "u1", domain.RoleDuke, domain.RoleContessa)

	_, err := svc.ProposeAction(sess, "u1", domain.ActionTax, "", 0)
	require.NoError(t, err)
	_, err = svc.SubmitResponse(sess, "u2", domain.ResponseChallenge, "", 1)
	require.NoError(t, err)
	require.Equal(t, domain.ResolutionReturnCard, sess.Pending.Kind)

	_, fired := svc.HandleDeadline(sess, sess.Pending.Generation, sess.Pending.Deadline)
	require.True(t, fired)
	require.Nil(t, sess.Pending)
	require.Len(t, sess.PlayerByID("u1").Hand, StartingHandSize)
	require.Equal(t, 5, sess.PlayerByID("u1").Coins, "tax executes after auto-return")
	require.Equal(t, domain.TotalCards, sess.CardsInPlay())
}

func TestDeadlineWhenNothingPending(t *testing.T) {
	svc := newTestService(35)
	sess := startedGame(t, svc, "u1", "u2")
	_, fired := svc.HandleDeadline(sess, 1, 1000)
	require.False(t, fired)
}
