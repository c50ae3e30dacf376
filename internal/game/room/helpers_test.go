package room

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/mystery-pairs/internal/game/card"
)

// seqSource 按顺序返回预设值，用于固定掷骰结果
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) IntN(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

// dice 返回依次掷出给定点数的随机源
func dice(faces ...int) *seqSource {
	vals := make([]int, len(faces))
	for i, f := range faces {
		vals[i] = f - 1
	}
	return &seqSource{vals: vals}
}

func num(c card.Color, n int) card.Card { return card.New(c, card.NumberValue(n)) }
func wild(c card.Color) card.Card       { return card.New(c, card.Value{Kind: card.Wildcard}) }
func mirrorCard(c card.Color) card.Card { return card.New(c, card.Value{Kind: card.Mirror}) }

func hand(cards ...card.Card) []card.Card { return cards }

// newTestRoom 创建 n 人房间，玩家 ID 为 p1..pn，初始筹码 chips
func newTestRoom(t *testing.T, n, chips int) *Room {
	t.Helper()
	r := New("room1", "p1", "P1", chips, rand.New(rand.NewPCG(1, 2)))
	for i := 2; i <= n; i++ {
		require.NoError(t, r.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("P%d", i)))
	}
	return r
}

// startedRoom 开始第一轮并用确定的牌替换手牌和牌堆（牌堆中没有特殊牌）
func startedRoom(t *testing.T, chips int, hands ...[]card.Card) *Room {
	t.Helper()
	r := newTestRoom(t, len(hands), chips)
	require.NoError(t, r.Start())
	for i, h := range hands {
		r.Players[i].Hand = h
	}
	r.DeckRed = numberDeck(card.Red, 12)
	r.DeckYellow = numberDeck(card.Yellow, 12)
	r.DiscardRed = card.Deck{num(card.Red, 6)}
	r.DiscardYellow = card.Deck{num(card.Yellow, 6)}
	return r
}

func numberDeck(c card.Color, size int) card.Deck {
	d := make(card.Deck, 0, size)
	for i := range size {
		d = append(d, num(c, i%6+1))
	}
	return d
}

func totalChips(r *Room) int {
	sum := 0
	for _, p := range r.Players {
		sum += p.ChipsTotal + p.ChipsAnted
	}
	return sum
}

// drawAndDiscard 当前玩家从红牌堆摸一张并立即弃掉
func drawAndDiscard(t *testing.T, r *Room) {
	t.Helper()
	p := r.CurrentPlayer()
	require.NoError(t, r.Draw(p.ID, card.Red, SourceDeck))
	require.NoError(t, r.Discard(p.ID, len(p.Hand)-1))
}

func lastLog(r *Room) string {
	return r.GameLog[len(r.GameLog)-1].Message
}
