// 包 search：筛选与联想共用的匹配谓词、文本归一化与排序
package search

import (
	"strings"
	"unicode/utf8"
)

// bengaliZero：孟加拉数字 ০ (U+09E6)，০–৯ 连续排列
const bengaliZero = '০'

// 文档注释：查询文本归一化
// 背景：用户可能用孟加拉数字输入区域代码，而检索串中的代码为 ASCII 数字；逐位替换后两种输入命中相同结果。
// 约束：去首尾空白 → 孟加拉数字映射为 ASCII → 小写；幂等。
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r >= bengaliZero && r <= bengaliZero+9 {
			return '0' + (r - bengaliZero)
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// NormalizeDigits：只做数字映射，不改大小写（NID 等纯数字输入使用）
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= bengaliZero && r <= bengaliZero+9 {
			return '0' + (r - bengaliZero)
		}
		return r
	}, strings.TrimSpace(s))
}

// queryLen：按字符计数，孟加拉文字符占一个长度
func queryLen(s string) int { return utf8.RuneCountInString(s) }
