package room

import (
	"slices"
	"time"

	"github.com/palemoky/mystery-pairs/internal/apperrors"
)

// Join 加入等待中的房间，初始筹码与房主相同
func (r *Room) Join(playerID, name string) error {
	if err := r.requirePhase(PhaseWaiting); err != nil {
		return err
	}
	if r.Player(playerID) != nil {
		return apperrors.ErrAlreadyJoined
	}

	chips := r.Players[0].InitialChips
	p := &Player{
		ID:           playerID,
		Name:         name,
		ChipsTotal:   chips,
		InitialChips: chips,
	}
	r.Players = append(r.Players, p)
	r.logPlayer(p, "%s joined the room (starting chips: %d)", name, chips)
	return nil
}

// Start 开始第一轮
func (r *Room) Start() error {
	if err := r.requirePhase(PhaseWaiting); err != nil {
		return err
	}
	r.startRound()
	return nil
}

// NextRound 亮牌后开始下一轮
func (r *Room) NextRound() error {
	if err := r.requirePhase(PhaseReveal); err != nil {
		return err
	}
	r.startRound()
	r.logSystem("Players advanced to next round manually.")
	return nil
}

// startRound 重建牌堆、轮换起始玩家并给每人各发一张红牌和黄牌
func (r *Room) startRound() {
	r.Phase = PhasePlaying
	r.RoundNumber++
	if r.RoundNumber == 1 {
		r.StartingPlayerIndex = 0
	} else {
		r.StartingPlayerIndex = (r.StartingPlayerIndex + 1) % len(r.Players)
	}
	r.CurrentTurnIndex = r.StartingPlayerIndex
	r.TurnsThisRound = 0
	r.WinnerIDs = nil
	r.GrandWinnerID = ""
	r.settlement = nil

	r.rebuildDecks()
	for _, p := range r.Players {
		p.resetRound()
	}

	// 两个弃牌堆各翻一张牌
	if c, ok := r.DeckRed.Draw(); ok {
		r.DiscardRed.Push(c)
	}
	if c, ok := r.DeckYellow.Draw(); ok {
		r.DiscardYellow.Push(c)
	}

	for _, p := range r.Players {
		if c, ok := r.DeckRed.Draw(); ok {
			p.Hand = append(p.Hand, c)
		}
		if c, ok := r.DeckYellow.Draw(); ok {
			p.Hand = append(p.Hand, c)
		}
	}

	r.logSystem("Round %d started. First player: %s", r.RoundNumber, r.CurrentPlayer().Name)
}

// PlayAgain 原地重置比赛，保留玩家并恢复初始筹码
func (r *Room) PlayAgain() {
	r.resetMatch()
	r.logSystem("Game restarted using previous settings.")
}

func (r *Room) resetMatch() {
	r.Phase = PhaseWaiting
	r.RoundNumber = 0
	r.TurnsThisRound = 0
	r.StartingPlayerIndex = 0
	r.CurrentTurnIndex = 0
	r.WinnerIDs = nil
	r.GrandWinnerID = ""
	r.settlement = nil
	r.rebuildDecks()
	for _, p := range r.Players {
		p.resetRound()
		p.ChipsTotal = p.InitialChips
	}
}

// Remake 用相同 ID 和玩家重建房间，沿用日志
// 玩家初始筹码未知时使用 defaultChips
func (r *Room) Remake(defaultChips int) *Room {
	now := time.Now()
	nr := &Room{
		ID:        r.ID,
		Players:   make([]*Player, len(r.Players)),
		GameLog:   slices.Clone(r.GameLog),
		CreatedAt: now,
		UpdatedAt: now,
		rng:       r.rng,
	}
	for i, p := range r.Players {
		chips := p.InitialChips
		if chips <= 0 {
			chips = defaultChips
		}
		nr.Players[i] = &Player{
			ID:           p.ID,
			Name:         p.Name,
			ChipsTotal:   chips,
			InitialChips: chips,
		}
	}
	nr.resetMatch()
	nr.logSystem("Game restarted with same settings.")
	return nr
}

// RemovePlayer 移除玩家，保持其余玩家相对顺序
// 回合指针强制指向（调整后的）起始玩家；返回房间是否已空
func (r *Room) RemovePlayer(playerID string) (empty bool, err error) {
	idx := r.playerIndex(playerID)
	if idx < 0 {
		return false, apperrors.ErrNotInRoom
	}
	leaving := r.Players[idx]
	wasStarting := idx == r.StartingPlayerIndex

	r.Players = slices.Delete(r.Players, idx, idx+1)
	r.logPlayer(leaving, "%s left the room", leaving.Name)
	if len(r.Players) == 0 {
		return true, nil
	}

	n := len(r.Players)
	if idx < r.StartingPlayerIndex {
		r.StartingPlayerIndex = (r.StartingPlayerIndex - 1 + n) % n
	}
	if wasStarting {
		r.StartingPlayerIndex %= n
	}
	r.CurrentTurnIndex = r.StartingPlayerIndex

	switch r.Phase {
	case PhasePlaying:
		r.returnStrandedDraws()
	case PhaseImposterRoll:
		if !r.anyPendingRolls() {
			r.finishReveal()
		}
	}
	return false, nil
}

// returnStrandedDraws 回合指针移动后，非当前玩家未完成的摸牌退回弃牌堆并退还筹码
func (r *Room) returnStrandedDraws() {
	for i, p := range r.Players {
		if i == r.CurrentTurnIndex || !p.HasDrawn {
			continue
		}
		last := len(p.Hand) - 1
		c := p.Hand[last]
		p.Hand = p.Hand[:last:last]
		p.HasDrawn = false
		r.discardPile(c.Color).Push(c)
		p.ChipsAnted--
		p.ChipsTotal++
		r.logPlayer(p, "%s returned a %s card to the discard pile", p.Name, c.Color)
	}
}
