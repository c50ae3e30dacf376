package room

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/mystery-pairs/internal/apperrors"
	"github.com/palemoky/mystery-pairs/internal/game/card"
)

func twoPlayerRoom(t *testing.T) *Room {
	t.Helper()
	return startedRoom(t, 8,
		hand(num(card.Red, 1), num(card.Yellow, 2)),
		hand(num(card.Red, 3), num(card.Yellow, 4)),
	)
}

func TestDraw_Effect(t *testing.T) {
	t.Parallel()

	r := twoPlayerRoom(t)
	top, _ := r.DiscardYellow.Top()

	require.NoError(t, r.Draw("p1", card.Yellow, SourceDiscard))

	p1 := r.Player("p1")
	assert.Equal(t, 7, p1.ChipsTotal)
	assert.Equal(t, 1, p1.ChipsAnted)
	require.Len(t, p1.Hand, 3)
	assert.Equal(t, top, p1.Hand[2])
	assert.Empty(t, r.DiscardYellow)
	assert.True(t, r.DrawPending())
	assert.Equal(t, "P1 drew a yellow card from discard", lastLog(r))
}

func TestDraw_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(r *Room)
		player  string
		color   card.Color
		source  DrawSource
		wantErr error
	}{
		{"wrong phase", func(r *Room) { r.Phase = PhaseReveal }, "p1", card.Red, SourceDeck, apperrors.ErrWrongPhase},
		{"not your turn", nil, "p2", card.Red, SourceDeck, apperrors.ErrNotYourTurn},
		{"stranger", nil, "ghost", card.Red, SourceDeck, apperrors.ErrNotInRoom},
		{"bad color", nil, "p1", card.Color("blue"), SourceDeck, apperrors.ErrInvalidMessage},
		{"bad source", nil, "p1", card.Red, DrawSource("hand"), apperrors.ErrInvalidMessage},
		{"no chips", func(r *Room) { r.Players[0].ChipsTotal = 0 }, "p1", card.Red, SourceDeck, apperrors.ErrNoChips},
		{"deck empty", func(r *Room) { r.DeckRed = card.Deck{} }, "p1", card.Red, SourceDeck, apperrors.ErrSourceExhausted},
		{"discard empty", func(r *Room) { r.DiscardYellow = card.Deck{} }, "p1", card.Yellow, SourceDiscard, apperrors.ErrSourceExhausted},
		{"already drew", func(r *Room) {
			r.Players[0].Hand = append(r.Players[0].Hand, num(card.Red, 5))
			r.Players[0].HasDrawn = true
		}, "p1", card.Red, SourceDeck, apperrors.ErrDrawPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := twoPlayerRoom(t)
			if tt.setup != nil {
				tt.setup(r)
			}
			before := r.Clone()

			err := r.Draw(tt.player, tt.color, tt.source)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, r, "rejected draw must not change the room")
		})
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	r := twoPlayerRoom(t)
	assert.ErrorIs(t, r.Discard("p1", 0), apperrors.ErrNoPendingDraw)

	require.NoError(t, r.Draw("p1", card.Red, SourceDeck))
	assert.ErrorIs(t, r.Discard("p1", 3), apperrors.ErrInvalidIndex)
	assert.ErrorIs(t, r.Discard("p1", -1), apperrors.ErrInvalidIndex)
	assert.ErrorIs(t, r.Discard("p2", 0), apperrors.ErrNotYourTurn)

	discarded := r.Player("p1").Hand[1] // yellow 2
	require.NoError(t, r.Discard("p1", 1))

	p1 := r.Player("p1")
	assert.Len(t, p1.Hand, 2)
	top, ok := r.DiscardYellow.Top()
	require.True(t, ok)
	assert.Equal(t, discarded, top, "card goes to its own color pile")
	assert.Equal(t, "P1 discarded a yellow 2", lastLog(r))
	assert.Equal(t, 1, r.TurnsThisRound)
	assert.Equal(t, 1, r.CurrentTurnIndex)
	assert.False(t, r.DrawPending())
}

func TestDraw_ShortHandStillOwesDiscard(t *testing.T) {
	t.Parallel()

	// 牌堆不够时玩家只拿到一张牌
	r := startedRoom(t, 8,
		hand(num(card.Red, 1)),
		hand(num(card.Red, 3), num(card.Yellow, 4)),
	)
	assert.False(t, r.DrawPending())
	assert.ErrorIs(t, r.Discard("p1", 0), apperrors.ErrNoPendingDraw)

	require.NoError(t, r.Draw("p1", card.Yellow, SourceDeck))
	require.Len(t, r.Player("p1").Hand, 2)
	assert.True(t, r.DrawPending())

	before := r.Clone()
	assert.ErrorIs(t, r.Draw("p1", card.Red, SourceDeck), apperrors.ErrDrawPending)
	assert.ErrorIs(t, r.Stand("p1"), apperrors.ErrDrawPending)
	assert.Equal(t, before, r)

	require.NoError(t, r.Discard("p1", 0))
	assert.Len(t, r.Player("p1").Hand, 1)
	assert.False(t, r.Player("p1").HasDrawn)
	assert.Equal(t, 1, r.CurrentTurnIndex)
}

func TestStand(t *testing.T) {
	t.Parallel()

	r := twoPlayerRoom(t)
	require.NoError(t, r.Stand("p1"))
	assert.Equal(t, "P1 stands", lastLog(r))
	assert.Equal(t, 1, r.CurrentTurnIndex)
	assert.Equal(t, 8, r.Player("p1").ChipsTotal)

	require.NoError(t, r.Draw("p2", card.Red, SourceDeck))
	assert.ErrorIs(t, r.Stand("p2"), apperrors.ErrDrawPending)
	assert.ErrorIs(t, r.Stand("p1"), apperrors.ErrNotYourTurn)
}

func TestEndTurn_RoundNumberOnWrap(t *testing.T) {
	t.Parallel()

	r := twoPlayerRoom(t)
	require.NoError(t, r.Stand("p1"))
	assert.Equal(t, 1, r.RoundNumber)
	require.NoError(t, r.Stand("p2"))
	assert.Equal(t, 2, r.RoundNumber, "wrapping onto the starting player bumps the display counter")
	assert.Equal(t, 0, r.CurrentTurnIndex)
}

func TestRoundEndsExactlyAtThreeTurnsPerPlayer(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 5} {
		for seed := range uint64(10) {
			hands := make([][]card.Card, n)
			for i := range hands {
				hands[i] = hand(num(card.Red, 2), num(card.Yellow, 5))
			}
			r := startedRoom(t, 8, hands...)
			r.DeckRed = numberDeck(card.Red, 40)
			r.DeckYellow = numberDeck(card.Yellow, 40)
			rng := rand.New(rand.NewPCG(seed, uint64(n)))

			for turn := 1; turn <= n*3; turn++ {
				require.Equal(t, PhasePlaying, r.Phase, "n=%d turn=%d", n, turn)
				if rng.IntN(2) == 0 {
					drawAndDiscard(t, r)
				} else {
					require.NoError(t, r.Stand(r.CurrentPlayer().ID))
				}
				if turn < n*3 {
					assert.GreaterOrEqual(t, r.CurrentTurnIndex, 0)
					assert.Less(t, r.CurrentTurnIndex, len(r.Players))
					assert.Equal(t, turn, r.TurnsThisRound)
				}
			}
			assert.NotEqual(t, PhasePlaying, r.Phase, "n=%d: round must end after %d turns", n, n*3)
		}
	}
}
