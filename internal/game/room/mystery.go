package room

import (
	"fmt"

	"github.com/palemoky/mystery-pairs/internal/apperrors"
	"github.com/palemoky/mystery-pairs/internal/game/card"
)

// beginReveal 为每张手中的神秘牌掷两次骰子并排队
// 没有神秘牌时直接亮牌结算
func (r *Room) beginReveal() {
	queued := false
	for _, p := range r.Players {
		p.PendingRolls = nil
		for _, c := range p.Hand {
			if !c.IsWildcard() {
				continue
			}
			p.PendingRolls = append(p.PendingRolls, PendingRoll{
				CardID: c.ID,
				Rolls:  [2]int{card.RollDie(r.rng), card.RollDie(r.rng)},
			})
			queued = true
		}
	}

	if !queued {
		r.logSystem("No mystery cards. Proceeding to reveal phase.")
		r.finishReveal()
		return
	}

	r.Phase = PhaseImposterRoll
	r.TurnsThisRound = 0
	r.logSystem("Mystery phase started.")
}

// ResolveMystery 玩家为队首的神秘牌选择一个掷骰结果
func (r *Room) ResolveMystery(playerID, cardID string, chosen int) error {
	if err := r.requirePhase(PhaseImposterRoll); err != nil {
		return err
	}
	p := r.Player(playerID)
	if p == nil {
		return apperrors.ErrNotInRoom
	}
	active, ok := p.ActiveRoll()
	if !ok || active.CardID != cardID {
		return apperrors.ErrNoActiveMystery
	}
	if !active.Allows(chosen) {
		return apperrors.ErrInvalidValue
	}

	i := handIndex(p.Hand, cardID)
	if i < 0 {
		panic(fmt.Sprintf("room %s: queued card %s missing from hand of %s", r.ID, cardID, p.ID))
	}
	p.Hand[i].Value = p.Hand[i].Value.Resolve(chosen)
	p.PendingRolls = p.PendingRolls[1:]
	r.logPlayer(p, "%s resolved a mystery card to %d", p.Name, chosen)

	if !r.anyPendingRolls() {
		r.finishReveal()
	}
	return nil
}

func (r *Room) anyPendingRolls() bool {
	for _, p := range r.Players {
		if len(p.PendingRolls) > 0 {
			return true
		}
	}
	return false
}

// finishReveal 镜像牌复制同手另一张已确定的牌，然后结算
// 两张镜像牌都保持未确定
func (r *Room) finishReveal() {
	for _, p := range r.Players {
		applyMirror(p.Hand)
	}
	r.Phase = PhaseReveal
	r.settle()
}

func applyMirror(hand []card.Card) {
	if len(hand) != HandSize {
		return
	}
	for i := range hand {
		other := hand[1-i]
		if hand[i].IsMirror() && other.Value.Resolved() {
			hand[i].Value = hand[i].Value.Resolve(other.Value.N)
		}
	}
}

func handIndex(hand []card.Card, cardID string) int {
	for i, c := range hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
