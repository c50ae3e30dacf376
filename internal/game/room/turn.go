package room

import (
	"github.com/palemoky/mystery-pairs/internal/apperrors"
	"github.com/palemoky/mystery-pairs/internal/game/card"
)

// DrawSource 摸牌来源
type DrawSource string

const (
	SourceDeck    DrawSource = "deck"
	SourceDiscard DrawSource = "discard"
)

// Valid 是否为合法来源
func (s DrawSource) Valid() bool {
	return s == SourceDeck || s == SourceDiscard
}

// 每位玩家每轮的回合数
const turnsPerPlayer = 3

// HandSize 弃牌义务完成后的手牌数
const HandSize = 2

// DrawPending 当前玩家是否摸了牌还没弃
// 人数较多时牌堆不够每人各发一张，手牌数不能说明是否摸过牌
func (r *Room) DrawPending() bool {
	p := r.CurrentPlayer()
	return p != nil && p.HasDrawn
}

func (r *Room) requireTurn(playerID string) (*Player, error) {
	if err := r.requirePhase(PhasePlaying); err != nil {
		return nil, err
	}
	p := r.CurrentPlayer()
	if p == nil || p.ID != playerID {
		if r.Player(playerID) == nil {
			return nil, apperrors.ErrNotInRoom
		}
		return nil, apperrors.ErrNotYourTurn
	}
	return p, nil
}

// Draw 当前玩家下注 1 个筹码并从指定颜色的牌堆或弃牌堆摸一张牌
func (r *Room) Draw(playerID string, color card.Color, source DrawSource) error {
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	if !color.Valid() || !source.Valid() {
		return apperrors.ErrInvalidMessage
	}
	if r.DrawPending() {
		return apperrors.ErrDrawPending
	}
	if p.ChipsTotal <= 0 {
		return apperrors.ErrNoChips
	}

	pile := r.deck(color)
	if source == SourceDiscard {
		pile = r.discardPile(color)
	}
	c, ok := pile.Draw()
	if !ok {
		return apperrors.ErrSourceExhausted
	}

	p.ChipsTotal--
	p.ChipsAnted++
	p.Hand = append(p.Hand, c)
	p.HasDrawn = true
	r.logPlayer(p, "%s drew a %s card from %s", p.Name, color, source)
	return nil
}

// Discard 当前玩家摸牌后弃掉一张，弃牌进入其颜色的弃牌堆
func (r *Room) Discard(playerID string, index int) error {
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	if !r.DrawPending() {
		return apperrors.ErrNoPendingDraw
	}
	if index < 0 || index >= len(p.Hand) {
		return apperrors.ErrInvalidIndex
	}

	c := p.Hand[index]
	p.Hand = append(p.Hand[:index:index], p.Hand[index+1:]...)
	r.discardPile(c.Color).Push(c)
	p.HasDrawn = false
	r.logPlayer(p, "%s discarded a %s", p.Name, c)
	r.endTurn()
	return nil
}

// Stand 当前玩家停牌，不花费筹码
func (r *Room) Stand(playerID string) error {
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	if r.DrawPending() {
		return apperrors.ErrDrawPending
	}

	r.logPlayer(p, "%s stands", p.Name)
	r.endTurn()
	return nil
}

// endTurn 回合计数加一；达到 人数×3 时进入揭示，否则轮转
// 轮转回到起始玩家时轮数加一（仅用于展示）
func (r *Room) endTurn() {
	r.TurnsThisRound++
	if r.TurnsThisRound >= len(r.Players)*turnsPerPlayer {
		r.beginReveal()
		return
	}
	r.CurrentTurnIndex = (r.CurrentTurnIndex + 1) % len(r.Players)
	if r.CurrentTurnIndex == r.StartingPlayerIndex {
		r.RoundNumber++
	}
}
