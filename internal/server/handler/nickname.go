package handler

import (
	"math/rand/v2"
	"strings"
)

// 昵称词库
var (
	adjectives = []string{
		"Brave", "Clever", "Happy", "Sly", "Cool",
		"Lucky", "Calm", "Bold", "Quiet", "Swift",
	}

	nouns = []string{
		"Fox", "Panda", "Tiger", "Otter", "Koala",
		"Corgi", "Raccoon", "Penguin", "Hedgehog", "Alpaca",
	}
)

const maxNameLength = 24

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + " " + nouns[rand.IntN(len(nouns))]
}

// displayName 规整玩家昵称，为空时随机生成
func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return GenerateNickname()
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name
}
