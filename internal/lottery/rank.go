package lottery

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/prize-lottery/internal/constants"

	"github.com/shopspring/decimal"
)

var (
	ErrWeightsMissingRank = errors.New("rank weight missing")
	ErrWeightsUnknownRank = errors.New("unknown rank in weights")
	ErrWeightsNegative    = errors.New("rank weight is negative")
	ErrWeightsSum         = errors.New("rank weights must sum to exactly 1")
)

// ranks 按优先级从高到低排列，决定累计区间顺序与降级顺序
var ranks = []string{constants.RankSS, constants.RankS, constants.RankA, constants.RankB}

var benefitPrefixes = map[string]string{
	constants.RankSS: "SS賞",
	constants.RankS:  "S賞",
	constants.RankA:  "A賞",
	constants.RankB:  "B賞",
}

// Ranks 返回全部等级（高到低）
func Ranks() []string {
	out := make([]string, len(ranks))
	copy(out, ranks)
	return out
}

// IsValidRank 判断等级是否合法
func IsValidRank(rank string) bool {
	return rankIndex(rank) >= 0
}

// NormalizeRank 统一等级写法（去空格、小写）
func NormalizeRank(rank string) string {
	return strings.ToLower(strings.TrimSpace(rank))
}

// FallbackChain 返回从 rank 开始向低等级降级的尝试顺序，永不升级
func FallbackChain(rank string) []string {
	idx := rankIndex(rank)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(ranks)-idx)
	copy(out, ranks[idx:])
	return out
}

// BenefitPrefix 返回等级对应的权益文案前缀，例如 "SS賞"
func BenefitPrefix(rank string) string {
	return benefitPrefixes[rank]
}

// RankFromBenefitText 从权益文案前缀推断等级
func RankFromBenefitText(text string) (string, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(text))
	// SS 需先于 S 匹配
	for _, rank := range ranks {
		if strings.HasPrefix(trimmed, strings.ToUpper(benefitPrefixes[rank])) {
			return rank, true
		}
	}
	return "", false
}

func rankIndex(rank string) int {
	for i, r := range ranks {
		if r == rank {
			return i
		}
	}
	return -1
}

// Weights 各等级中奖概率
type Weights map[string]decimal.Decimal

// DefaultWeights 默认概率：SS 0.1%、S 1.5%、A 12%、B 86.4%
func DefaultWeights() Weights {
	return Weights{
		constants.RankSS: decimal.RequireFromString("0.001"),
		constants.RankS:  decimal.RequireFromString("0.015"),
		constants.RankA:  decimal.RequireFromString("0.12"),
		constants.RankB:  decimal.RequireFromString("0.864"),
	}
}

// ParseWeights 从配置字符串解析概率
func ParseWeights(raw map[string]string) (Weights, error) {
	weights := make(Weights, len(raw))
	for key, value := range raw {
		rank := NormalizeRank(key)
		parsed, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parse weight for rank %s failed: %w", key, err)
		}
		weights[rank] = parsed
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return weights, nil
}

// Validate 校验概率完整、非负且合计精确为 1
func (w Weights) Validate() error {
	for key := range w {
		if !IsValidRank(key) {
			return fmt.Errorf("%w: %s", ErrWeightsUnknownRank, key)
		}
	}
	sum := decimal.Zero
	for _, rank := range ranks {
		weight, ok := w[rank]
		if !ok {
			return fmt.Errorf("%w: %s", ErrWeightsMissingRank, rank)
		}
		if weight.IsNegative() {
			return fmt.Errorf("%w: %s", ErrWeightsNegative, rank)
		}
		sum = sum.Add(weight)
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: got %s", ErrWeightsSum, sum.String())
	}
	return nil
}

// Boundary 等级累计区间 [Lower, Upper)
type Boundary struct {
	Rank  string
	Lower decimal.Decimal
	Upper decimal.Decimal
}

// Boundaries 按优先级计算累计区间
func (w Weights) Boundaries() []Boundary {
	out := make([]Boundary, 0, len(ranks))
	lower := decimal.Zero
	for _, rank := range ranks {
		upper := lower.Add(w[rank])
		out = append(out, Boundary{Rank: rank, Lower: lower, Upper: upper})
		lower = upper
	}
	return out
}

// RandomSource 随机源，便于测试时注入确定性实现
type RandomSource interface {
	// Float64 返回 [0,1) 区间的均匀随机数
	Float64() float64
	// IntN 返回 [0,n) 区间的均匀随机整数
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// DefaultSource 并发安全的全局随机源
func DefaultSource() RandomSource {
	return globalSource{}
}

// Selector 等级抽选器，无状态，可并发使用
type Selector struct {
	ranks  []string
	uppers []float64
	source RandomSource
}

// NewSelector 创建抽选器；source 为空时使用全局随机源
func NewSelector(weights Weights, source RandomSource) (*Selector, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		source = DefaultSource()
	}
	bounds := weights.Boundaries()
	s := &Selector{
		ranks:  make([]string, 0, len(bounds)),
		uppers: make([]float64, 0, len(bounds)),
		source: source,
	}
	for _, b := range bounds {
		s.ranks = append(s.ranks, b.Rank)
		s.uppers = append(s.uppers, b.Upper.InexactFloat64())
	}
	return s, nil
}

// Pick 抽选目标等级
func (s *Selector) Pick() string {
	return s.RankFor(s.source.Float64())
}

// RankFor 将 [0,1) 的随机值映射为等级
func (s *Selector) RankFor(x float64) string {
	idx := sort.Search(len(s.uppers), func(i int) bool { return x < s.uppers[i] })
	if idx >= len(s.ranks) {
		// x 只会落在 [0,1)，兜底返回最低等级
		return s.ranks[len(s.ranks)-1]
	}
	return s.ranks[idx]
}

// Source 返回抽选器使用的随机源
func (s *Selector) Source() RandomSource {
	return s.source
}
