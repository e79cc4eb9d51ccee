// 包 nid：由国民身份证号推导区域代码并查找对应投票中心
package nid

import (
	"errors"
	"strings"
	"time"

	"center-lookup/internal/refindex"
	"center-lookup/internal/search"
)

// AreaCodeLen：NID 末尾作为区域代码的位数
const AreaCodeLen = 6

var (
	// ErrInvalidNID：去掉非数字后不足 AreaCodeLen 位，无法推导区域代码
	ErrInvalidNID = errors.New("nid: too few digits to derive an area code")
	// ErrInvalidDOB：给出了出生日期但不是 YYYY-MM-DD
	ErrInvalidDOB = errors.New("nid: birth date must be YYYY-MM-DD")
)

// Result：一次查询的结果；Centers 为空是正常结果，AreaCode 仍然给出
type Result struct {
	NID       string                    `json:"-"`
	AreaCode  string                    `json:"area_code"`
	BirthDate *time.Time                `json:"birth_date,omitempty"`
	Centers   []*refindex.IndexedCenter `json:"-"`
}

// Digits：数字归一化后去掉所有非 ASCII 数字字符
func Digits(raw string) string {
	s := search.NormalizeDigits(raw)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// AreaCode：NID 末 6 位
func AreaCode(raw string) (string, error) {
	d := Digits(raw)
	if len(d) < AreaCodeLen {
		return "", ErrInvalidNID
	}
	return d[len(d)-AreaCodeLen:], nil
}

// ParseBirthDate：空串返回 nil；接受孟加拉数字
func ParseBirthDate(raw string) (*time.Time, error) {
	s := search.NormalizeDigits(raw)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, ErrInvalidDOB
	}
	return &t, nil
}

// 文档注释：NID 查询
// 背景：区域代码在全部中心内精确匹配（不受当前筛选条件约束），结果按筛选引擎的标准顺序排列。
// 约束：返回新切片；不做号码长度或年龄校验，出生日期只做格式解析后原样带回。
func Lookup(centers []*refindex.IndexedCenter, rawNID, rawDOB string) (Result, error) {
	code, err := AreaCode(rawNID)
	if err != nil {
		return Result{}, err
	}
	dob, err := ParseBirthDate(rawDOB)
	if err != nil {
		return Result{}, err
	}
	matched := make([]*refindex.IndexedCenter, 0)
	for _, c := range centers {
		if c.HasAreaCode(code) {
			matched = append(matched, c)
		}
	}
	search.SortStable(matched)
	return Result{NID: Digits(rawNID), AreaCode: code, BirthDate: dob, Centers: matched}, nil
}
