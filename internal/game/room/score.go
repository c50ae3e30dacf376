package room

import (
	"slices"
	"strings"

	"github.com/palemoky/mystery-pairs/internal/game/card"
)

// handScore 一手牌的评估结果
type handScore struct {
	complete bool // 两张牌都可比较
	prime    bool // 两张未确定的镜像牌，最大牌型
	pair     bool
	low      int
	high     int
}

func (h handScore) pairValue() int { return h.low }
func (h handScore) diff() int      { return h.high - h.low }
func (h handScore) sum() int       { return h.low + h.high }

// roundScore 对子记点数，其余记差值，最大牌型记 0
func (h handScore) roundScore() *int {
	if !h.complete {
		return nil
	}
	var s int
	switch {
	case h.prime:
		s = 0
	case h.pair:
		s = h.pairValue()
	default:
		s = h.diff()
	}
	return &s
}

func evaluate(hand []card.Card) handScore {
	if len(hand) != HandSize {
		return handScore{}
	}
	a, b := hand[0], hand[1]
	if a.IsMirror() && b.IsMirror() {
		return handScore{complete: true, prime: true}
	}
	x, okA := a.Value.Int()
	y, okB := b.Value.Int()
	if !okA || !okB {
		return handScore{}
	}
	low, high := min(x, y), max(x, y)
	return handScore{complete: true, pair: low == high, low: low, high: high}
}

// rank 返回获胜者下标（可能并列）
// 最大牌型 > 最小对子 > 最小差值，差值相同比较两牌之和
func rank(scores []handScore) []int {
	pick := func(match func(handScore) bool, better func(a, b handScore) int) []int {
		var winners []int
		for i, s := range scores {
			if !match(s) {
				continue
			}
			if len(winners) == 0 {
				winners = []int{i}
				continue
			}
			switch c := better(s, scores[winners[0]]); {
			case c < 0:
				winners = []int{i}
			case c == 0:
				winners = append(winners, i)
			}
		}
		return winners
	}

	if w := pick(func(s handScore) bool { return s.prime }, func(a, b handScore) int { return 0 }); len(w) > 0 {
		return w
	}
	if w := pick(func(s handScore) bool { return s.pair }, func(a, b handScore) int {
		return a.pairValue() - b.pairValue()
	}); len(w) > 0 {
		return w
	}
	return pick(func(s handScore) bool { return s.complete }, func(a, b handScore) int {
		if d := a.diff() - b.diff(); d != 0 {
			return d
		}
		return a.sum() - b.sum()
	})
}

// Settlement 一轮结算结果
type Settlement struct {
	WinnerIDs []string       `json:"winnerIds"`
	Deltas    map[string]int `json:"deltas"`    // 结算时余额变化
	Forfeited int            `json:"forfeited"` // 输家没收的下注
	Deducted  int            `json:"deducted"`  // 非对子输家实际扣除的差值
	Clamped   int            `json:"clamped"`   // 因余额归零未能扣除的部分
}

// settle 结算：赢家收回下注；非对子输家再扣差值（最低到 0）；对子输家只损失下注
// 结算后若恰有一人余额为正，则该玩家为最终赢家
func (r *Room) settle() {
	scores := make([]handScore, len(r.Players))
	for i, p := range r.Players {
		scores[i] = evaluate(p.Hand)
	}
	winners := rank(scores)

	s := &Settlement{Deltas: make(map[string]int, len(r.Players))}
	names := make([]string, 0, len(winners))
	for i, p := range r.Players {
		score := scores[i]
		if slices.Contains(winners, i) {
			p.ChipsTotal += p.ChipsAnted
			s.Deltas[p.ID] = p.ChipsAnted
			s.WinnerIDs = append(s.WinnerIDs, p.ID)
			names = append(names, p.Name)
		} else {
			s.Forfeited += p.ChipsAnted
			loss := 0
			if score.complete && !score.prime && !score.pair {
				loss = score.diff()
				if loss > p.ChipsTotal {
					s.Clamped += loss - p.ChipsTotal
					loss = p.ChipsTotal
				}
			}
			p.ChipsTotal -= loss
			s.Deducted += loss
			s.Deltas[p.ID] = -loss
		}
		p.RoundScore = score.roundScore()
		p.ChipsAnted = 0
	}

	r.WinnerIDs = s.WinnerIDs
	r.settlement = s
	r.logSystem("Round ended. Winners: %s", strings.Join(names, ", "))
	for _, p := range r.Players {
		r.logPlayer(p, "%s now has %d chips.", p.Name, p.ChipsTotal)
	}

	var stillIn []*Player
	for _, p := range r.Players {
		if p.ChipsTotal > 0 {
			stillIn = append(stillIn, p)
		}
	}
	if len(stillIn) == 1 {
		r.GrandWinnerID = stillIn[0].ID
		r.Phase = PhaseGameOver
		r.logSystem("Grand Winner: %s!", stillIn[0].Name)
	}
}
