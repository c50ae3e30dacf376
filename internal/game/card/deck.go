package card

import "math/rand/v2"

// 每副牌的构成
const (
	MinNumber     = 1
	MaxNumber     = 6
	CopiesPerNum  = 3
	WildcardCount = 3
	MirrorCount   = 1
	DeckSize      = (MaxNumber-MinNumber+1)*CopiesPerNum + WildcardCount + MirrorCount
)

// Source 随机数来源，*rand.Rand 满足该接口
type Source interface {
	// IntN 返回 [0, n) 内的均匀随机整数
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource 使用 math/rand/v2 全局随机源
var DefaultSource Source = globalSource{}

// RollDie 掷一次六面骰，返回 1..6
func RollDie(rng Source) int {
	return rng.IntN(6) + 1
}

// Deck 一副牌或一个弃牌堆，末尾为牌顶
type Deck []Card

// NewDeck 创建指定颜色的一副新牌并洗牌
func NewDeck(color Color, rng Source) Deck {
	deck := make(Deck, 0, DeckSize)
	for n := MinNumber; n <= MaxNumber; n++ {
		for range CopiesPerNum {
			deck = append(deck, New(color, NumberValue(n)))
		}
	}
	for range WildcardCount {
		deck = append(deck, New(color, Value{Kind: Wildcard}))
	}
	for range MirrorCount {
		deck = append(deck, New(color, Value{Kind: Mirror}))
	}
	deck.Shuffle(rng)
	return deck
}

// Shuffle Fisher–Yates 洗牌，i 从末尾到 1，j 均匀取自 [0, i]
func (d Deck) Shuffle(rng Source) {
	for i := len(d) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// Draw 从牌顶取一张牌；牌堆为空时 ok 为 false
func (d *Deck) Draw() (c Card, ok bool) {
	n := len(*d)
	if n == 0 {
		return Card{}, false
	}
	c = (*d)[n-1]
	*d = (*d)[:n-1]
	return c, true
}

// Push 把牌放到牌顶
func (d *Deck) Push(c Card) {
	*d = append(*d, c)
}

// Top 查看牌顶
func (d Deck) Top() (Card, bool) {
	if len(d) == 0 {
		return Card{}, false
	}
	return d[len(d)-1], true
}
