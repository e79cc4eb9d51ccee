// 包 sqldump：解析单行 INSERT INTO 形式的 SQL 转储，产出按列名组织的行
package sqldump

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Row：一行记录，列名 → 值（nil、string、int64、float64）
type Row map[string]any

var (
	insertRE = regexp.MustCompile(`(?i)^INSERT INTO\s+(\w+)\s*\(([^)]*)\)\s*VALUES\s*\((.*)\);\s*$`)
	intRE    = regexp.MustCompile(`^-?\d+$`)
	floatRE  = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// SplitValues：按逗号切分 VALUES 括号内的内容，单引号内的逗号不切分，'' 视为转义的引号
func SplitValues(payload string) []string {
	var (
		values  []string
		buf     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(payload); i++ {
		ch := payload[i]
		switch {
		case ch == '\'' && inQuote && i+1 < len(payload) && payload[i+1] == '\'':
			buf.WriteString("''")
			i++
		case ch == '\'':
			inQuote = !inQuote
			buf.WriteByte(ch)
		case ch == ',' && !inQuote:
			values = append(values, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteByte(ch)
		}
	}
	if buf.Len() > 0 {
		values = append(values, strings.TrimSpace(buf.String()))
	}
	return values
}

// ParseValue：NULL → nil；'..' → 去引号并还原 ''；整数 → int64；小数 → float64；其余原样
func ParseValue(token string) any {
	if strings.EqualFold(token, "NULL") {
		return nil
	}
	if len(token) >= 2 && strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") {
		return strings.ReplaceAll(token[1:len(token)-1], "''", "'")
	}
	if intRE.MatchString(token) {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			return n
		}
	}
	if floatRE.MatchString(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return f
		}
	}
	return token
}

// 文档注释：解析一张表的转储
// 背景：转储每行一条 INSERT；其它语句、表名不符或列数与值数不一致的行被跳过。
// 约束：单行上限 4MB；只读 table 指定的表（大小写不敏感）。
func ParseTable(r io.Reader, table string) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var rows []Row
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.HasPrefix(line, "INSERT INTO") {
			continue
		}
		m := insertRE.FindStringSubmatch(line)
		if m == nil || !strings.EqualFold(m[1], table) {
			continue
		}
		cols := strings.Split(m[2], ",")
		vals := SplitValues(m[3])
		if len(cols) != len(vals) {
			continue
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[strings.TrimSpace(c)] = ParseValue(vals[i])
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ParseFile：同 ParseTable，从文件读取
func ParseFile(path, table string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTable(f, table)
}
