package lottery

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/prize-lottery/internal/constants"
)

const (
	codeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeBodyLength = 8
	// 单次生成碰撞重试上限
	maxGenerateTries = 64
)

var (
	// ErrShortCodeExhausted 末 4 位空间耗尽或碰撞过多
	ErrShortCodeExhausted = errors.New("unable to generate code with unique short code")
	// ErrShortCodeTaken 导入的奖品码末 4 位与已有库存重复
	ErrShortCodeTaken = errors.New("short code already taken")
)

// CodeGenerator 奖品码生成器
// 保证同一批次及已有库存之间末 4 位全局唯一，便于顾客按短码核销
type CodeGenerator struct {
	prefix string
	taken  map[string]struct{}
	random func(max int) (int, error)
}

// NewCodeGenerator 创建生成器，existingShortCodes 为库中已有的短码
func NewCodeGenerator(prefix string, existingShortCodes []string) *CodeGenerator {
	taken := make(map[string]struct{}, len(existingShortCodes))
	for _, short := range existingShortCodes {
		taken[strings.ToUpper(short)] = struct{}{}
	}
	return &CodeGenerator{
		prefix: strings.ToUpper(strings.TrimSpace(prefix)),
		taken:  taken,
		random: cryptoIntN,
	}
}

// Next 生成一个指定等级的奖品码，格式 PREFIX-RANK-XXXXXXXX
func (g *CodeGenerator) Next(rank string) (string, error) {
	if !IsValidRank(rank) {
		return "", fmt.Errorf("%w: %s", ErrWeightsUnknownRank, rank)
	}
	for i := 0; i < maxGenerateTries; i++ {
		body, err := g.randomBody()
		if err != nil {
			return "", err
		}
		short := body[len(body)-constants.ShortCodeLength:]
		if _, ok := g.taken[short]; ok {
			continue
		}
		g.taken[short] = struct{}{}
		parts := []string{strings.ToUpper(rank), body}
		if g.prefix != "" {
			parts = append([]string{g.prefix}, parts...)
		}
		return strings.Join(parts, "-"), nil
	}
	return "", ErrShortCodeExhausted
}

// Reserve 登记外部导入的奖品码，末 4 位已被占用时拒绝
func (g *CodeGenerator) Reserve(code string) error {
	short := strings.ToUpper(strings.TrimSpace(code))
	if len(short) > constants.ShortCodeLength {
		short = short[len(short)-constants.ShortCodeLength:]
	}
	if _, ok := g.taken[short]; ok {
		return fmt.Errorf("%w: %s", ErrShortCodeTaken, short)
	}
	g.taken[short] = struct{}{}
	return nil
}

func (g *CodeGenerator) randomBody() (string, error) {
	var builder strings.Builder
	builder.Grow(codeBodyLength)
	for i := 0; i < codeBodyLength; i++ {
		n, err := g.random(len(codeAlphabet))
		if err != nil {
			return "", err
		}
		builder.WriteByte(codeAlphabet[n])
	}
	return builder.String(), nil
}

func cryptoIntN(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
