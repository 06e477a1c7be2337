package lottery

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prize-lottery/internal/constants"
)

// ErrInventoryRow 导入行格式不正确或无法识别等级
var ErrInventoryRow = errors.New("invalid inventory row")

// InventoryRow 导入的一条奖品码
type InventoryRow struct {
	Code        string
	BenefitText string
	Rank        string
}

// ParseInventory 读取 "code,benefit_text" 格式的库存清单
// 等级由权益文案前缀（SS賞/S賞/A賞/B賞）推断，首行为 code 表头时跳过
func ParseInventory(r io.Reader) ([]InventoryRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows := make([]InventoryRow, 0)
	seen := make(map[string]struct{})
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInventoryRow, err)
		}
		line, _ := reader.FieldPos(0)
		if first && strings.EqualFold(strings.TrimSpace(record[0]), "code") {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: line %d: want code,benefit_text", ErrInventoryRow, line)
		}
		code := strings.TrimSpace(record[0])
		text := strings.TrimSpace(record[1])
		if len(code) < constants.ShortCodeLength {
			return nil, fmt.Errorf("%w: line %d: code %q too short", ErrInventoryRow, line, code)
		}
		rank, ok := RankFromBenefitText(text)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: no rank prefix in %q", ErrInventoryRow, line, text)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate code %s", ErrInventoryRow, line, code)
		}
		seen[code] = struct{}{}
		rows = append(rows, InventoryRow{Code: code, BenefitText: text, Rank: rank})
	}
	return rows, nil
}
