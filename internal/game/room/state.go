package room

import "github.com/palemoky/mystery-pairs/internal/apperrors"

// Phase 房间阶段
type Phase string

const (
	PhaseWaiting      Phase = "waiting"      // 等待开始（新建或重置后）
	PhasePlaying      Phase = "playing"      // 摸牌/弃牌/停牌
	PhaseImposterRoll Phase = "imposterRoll" // 神秘牌掷骰选值
	PhaseReveal       Phase = "reveal"       // 亮牌结算完成，等待下一轮
	PhaseGameOver     Phase = "gameOver"     // 本场比赛结束
)

// InRound 是否处于一轮游戏中
func (p Phase) InRound() bool {
	return p == PhasePlaying || p == PhaseImposterRoll || p == PhaseReveal
}

func (r *Room) requirePhase(allowed ...Phase) error {
	for _, p := range allowed {
		if r.Phase == p {
			return nil
		}
	}
	return apperrors.ErrWrongPhase
}
