package room

import (
	"fmt"
	"slices"
	"time"

	"github.com/palemoky/mystery-pairs/internal/game/card"
)

const (
	systemID   = "system"
	timeLayout = "15:04:05"
)

// PendingRoll 待选值的神秘牌，队首为当前可操作项
type PendingRoll struct {
	CardID string `json:"cardId"`
	Rolls  [2]int `json:"rolls"`
}

// Allows 是否为两次掷骰结果之一
func (p PendingRoll) Allows(n int) bool {
	return p.Rolls[0] == n || p.Rolls[1] == n
}

// Player 房间中的玩家，顺序即出牌顺序
type Player struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ChipsTotal   int           `json:"chipsTotal"`
	InitialChips int           `json:"initialChips"`
	ChipsAnted   int           `json:"chipsAnted"`
	Hand         []card.Card   `json:"hand"`
	PendingRolls []PendingRoll `json:"pendingRolls"`
	RoundScore   *int          `json:"roundScore,omitempty"`
	HasDrawn     bool          `json:"hasDrawn"` // 本回合已摸牌，尚未弃牌
}

// ActiveRoll 返回当前待选值的神秘牌
func (p *Player) ActiveRoll() (PendingRoll, bool) {
	if len(p.PendingRolls) == 0 {
		return PendingRoll{}, false
	}
	return p.PendingRolls[0], true
}

func (p *Player) resetRound() {
	p.Hand = nil
	p.ChipsAnted = 0
	p.PendingRolls = nil
	p.RoundScore = nil
	p.HasDrawn = false
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Hand = slices.Clone(p.Hand)
	cp.PendingRolls = slices.Clone(p.PendingRolls)
	if p.RoundScore != nil {
		score := *p.RoundScore
		cp.RoundScore = &score
	}
	return &cp
}

// LogEntry 房间日志条目，只追加
type LogEntry struct {
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	Message       string `json:"message"`
	Timestamp     int64  `json:"timestamp"` // 毫秒
	TimeFormatted string `json:"timeFormatted"`
}

// Room 游戏房间
// Room 本身不加锁，所有操作都由 Manager 按房间串行化
type Room struct {
	ID                  string     `json:"id"`
	Players             []*Player  `json:"players"`
	DeckRed             card.Deck  `json:"deckRed"`
	DeckYellow          card.Deck  `json:"deckYellow"`
	DiscardRed          card.Deck  `json:"discardRed"`
	DiscardYellow       card.Deck  `json:"discardYellow"`
	CurrentTurnIndex    int        `json:"currentTurnPlayerIndex"`
	StartingPlayerIndex int        `json:"startingPlayerIndex"`
	RoundNumber         int        `json:"roundNumber"`
	TurnsThisRound      int        `json:"turnsThisRound"`
	Phase               Phase      `json:"phase"`
	GameLog             []LogEntry `json:"gameLog"`
	WinnerIDs           []string   `json:"winnerIds,omitempty"`
	GrandWinnerID       string     `json:"grandWinnerId,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	settlement          *Settlement
	rng                 card.Source
}

// New 创建房间，创建者为第一位玩家
func New(id, hostID, name string, chips int, rng card.Source) *Room {
	if rng == nil {
		rng = card.DefaultSource
	}
	now := time.Now()
	r := &Room{
		ID: id,
		Players: []*Player{{
			ID:           hostID,
			Name:         name,
			ChipsTotal:   chips,
			InitialChips: chips,
		}},
		Phase:     PhaseWaiting,
		CreatedAt: now,
		UpdatedAt: now,
		rng:       rng,
	}
	r.rebuildDecks()
	r.logSystem("Room %s created by %s (starting chips: %d)", id, name, chips)
	return r
}

// Player 按 ID 查找玩家
func (r *Room) Player(id string) *Player {
	if i := r.playerIndex(id); i >= 0 {
		return r.Players[i]
	}
	return nil
}

// CurrentPlayer 返回当前回合玩家
func (r *Room) CurrentPlayer() *Player {
	if len(r.Players) == 0 {
		return nil
	}
	return r.Players[r.CurrentTurnIndex]
}

// LastSettlement 返回最近一次结算结果
func (r *Room) LastSettlement() *Settlement {
	return r.settlement
}

// Clone 深拷贝，用于锁外的快照
func (r *Room) Clone() *Room {
	cp := *r
	cp.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp.Players[i] = p.clone()
	}
	cp.DeckRed = slices.Clone(r.DeckRed)
	cp.DeckYellow = slices.Clone(r.DeckYellow)
	cp.DiscardRed = slices.Clone(r.DiscardRed)
	cp.DiscardYellow = slices.Clone(r.DiscardYellow)
	cp.GameLog = slices.Clone(r.GameLog)
	cp.WinnerIDs = slices.Clone(r.WinnerIDs)
	return &cp
}

func (r *Room) playerIndex(id string) int {
	return slices.IndexFunc(r.Players, func(p *Player) bool { return p.ID == id })
}

func (r *Room) deck(c card.Color) *card.Deck {
	if c == card.Red {
		return &r.DeckRed
	}
	return &r.DeckYellow
}

func (r *Room) discardPile(c card.Color) *card.Deck {
	if c == card.Red {
		return &r.DiscardRed
	}
	return &r.DiscardYellow
}

func (r *Room) rebuildDecks() {
	r.DeckRed = card.NewDeck(card.Red, r.rng)
	r.DeckYellow = card.NewDeck(card.Yellow, r.rng)
	r.DiscardRed = card.Deck{}
	r.DiscardYellow = card.Deck{}
}

func (r *Room) appendLog(playerID, playerName, msg string) {
	now := time.Now()
	r.GameLog = append(r.GameLog, LogEntry{
		PlayerID:      playerID,
		PlayerName:    playerName,
		Message:       msg,
		Timestamp:     now.UnixMilli(),
		TimeFormatted: now.Format(timeLayout),
	})
}

func (r *Room) logPlayer(p *Player, format string, args ...any) {
	r.appendLog(p.ID, p.Name, fmt.Sprintf(format, args...))
}

func (r *Room) logSystem(format string, args ...any) {
	r.appendLog(systemID, systemID, fmt.Sprintf(format, args...))
}
