package card

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
)

// Color 牌的颜色，每种颜色各有一副牌和一个弃牌堆
type Color string

const (
	Red    Color = "red"
	Yellow Color = "yellow"
)

// Colors 固定的颜色顺序（发牌、重建牌堆时使用）
var Colors = [...]Color{Red, Yellow}

// Valid 是否为合法颜色
func (c Color) Valid() bool {
	return c == Red || c == Yellow
}

// Kind 牌值类型
type Kind int

const (
	Number   Kind = iota // 普通点数
	Wildcard             // 神秘牌，揭示时由持有者在两次掷骰结果中选择
	Mirror               // 镜像牌，揭示时复制同手另一张牌的点数
)

var kindNames = map[Kind]string{
	Number:   "number",
	Wildcard: "wildcard",
	Mirror:   "mirror",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value 牌值：已确定的点数，或尚未确定的特殊牌
// 特殊牌只能通过 Resolve 转为点数，不可逆
type Value struct {
	Kind Kind
	N    int
}

// NumberValue 返回点数牌值
func NumberValue(n int) Value { return Value{Kind: Number, N: n} }

// Resolved 牌值是否已确定
func (v Value) Resolved() bool { return v.Kind == Number }

// Int 返回点数；未确定时 ok 为 false
func (v Value) Int() (n int, ok bool) {
	if !v.Resolved() {
		return 0, false
	}
	return v.N, true
}

// Resolve 返回确定为 n 的牌值
// 只有特殊牌可以确定，对已确定的牌值调用属于逻辑错误，直接 panic
func (v Value) Resolve(n int) Value {
	if v.Resolved() {
		panic(fmt.Sprintf("card: resolve %d on already resolved value %d", n, v.N))
	}
	return NumberValue(n)
}

func (v Value) String() string {
	if v.Resolved() {
		return strconv.Itoa(v.N)
	}
	return v.Kind.String()
}

// MarshalJSON 已确定的牌值编码为整数，特殊牌编码为字符串
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Resolved() {
		return json.Marshal(v.N)
	}
	return json.Marshal(v.Kind.String())
}

// UnmarshalJSON 解析整数或 "wildcard" / "mirror"
func (v *Value) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("无法解析牌值 %s: %w", data, err)
	}
	switch s {
	case "wildcard":
		*v = Value{Kind: Wildcard}
	case "mirror":
		*v = Value{Kind: Mirror}
	default:
		return fmt.Errorf("未知的牌值: %q", s)
	}
	return nil
}

// Card 一张牌
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Value Value  `json:"value"`
}

func (c Card) String() string {
	return string(c.Color) + " " + c.Value.String()
}

// IsWildcard 是否为未确定的神秘牌
func (c Card) IsWildcard() bool { return c.Value.Kind == Wildcard }

// IsMirror 是否为未确定的镜像牌
func (c Card) IsMirror() bool { return c.Value.Kind == Mirror }

var lastID atomic.Uint64

// nextID 进程内单调递增、永不复用的牌 ID
func nextID() string {
	return "c" + strconv.FormatUint(lastID.Add(1), 10)
}

// New 创建一张带新 ID 的牌
func New(color Color, value Value) Card {
	return Card{ID: nextID(), Color: color, Value: value}
}
