package signal

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var adjectives = []string{
	"QUICK", "CALM", "BRAVE", "BRIGHT", "COOL",
	"EAGER", "FAIR", "GENTLE", "GRAND", "GREEN",
	"BLUE", "RED", "GOLD", "WARM", "BOLD",
	"CLEAR", "CRISP", "DEEP", "FAST", "FRESH",
	"KIND", "LIGHT", "NEAT", "PLAIN", "PROUD",
	"SAFE", "SHARP", "SMART", "SOFT", "WISE",
}

var nouns = []string{
	"FROG", "TIGER", "RIVER", "CLOUD", "STONE",
	"LEAF", "BIRD", "WOLF", "BEAR", "HAWK",
	"DEER", "EAGLE", "WHALE", "OTTER", "SHARK",
	"LAKE", "MOON", "STAR", "WAVE", "WIND",
	"FROST", "PEAK", "DAWN", "DUSK", "MIST",
	"STORM", "CLIFF", "DELTA", "GROVE", "RIDGE",
}

var rng *rand.Rand

func init() {
	rng = rand.New(rand.NewSource(time.Now().UnixNano()))
}

// GenerateRoomCode creates a memorable room code in ADJECTIVE-NOUN-NN format
func GenerateRoomCode() string {
	adj := adjectives[rng.Intn(len(adjectives))]
	noun := nouns[rng.Intn(len(nouns))]
	num := rng.Intn(100)
	return fmt.Sprintf("%s-%s-%02d", adj, noun, num)
}

// NormalizeRoomCode ensures consistent formatting (uppercase, trimmed)
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoomCode checks if a room code has valid format
func ValidateRoomCode(code string) bool {
	for _, part := range strings.Split(code, "-") {
		if part == "" {
			return false
		}
	}
	return strings.Count(code, "-") == 2
}
