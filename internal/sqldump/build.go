package sqldump

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"center-lookup/internal/dataset"
	"center-lookup/internal/logger"
)

// TableFile：表名与转储文件名
type TableFile struct {
	Table string
	File  string
}

// Tables：转储文件的固定顺序，输出文件名为 <table>.json
var Tables = []TableFile{
	{"divisions", "001_divisions.sql"},
	{"districts", "002_districts.sql"},
	{"upazilas", "003_upazilas.sql"},
	{"constituencies", "004_constituencies.sql"},
	{"unions", "005_unions.sql"},
	{"centers", "006_centers.sql"},
	{"parties", "007_parties.sql"},
}

// 文档注释：由 SQL 转储生成数据目录
// 背景：sqlDir 下七个转储文件逐表解析为 JSON；mapsDir 下的 *.svg 文件名（去扩展名、小写、排序）写入地图索引；最后写出各表计数。
// 约束：任一转储文件缺失即失败；mapsDir 为空串或不存在时地图索引为空列表。返回计数（含 maps）。
func Build(sqlDir, mapsDir, outDir string) (map[string]int, error) {
	l := logger.For("sqldump")
	summary := make(map[string]int, len(Tables)+1)
	for _, t := range Tables {
		rows, err := ParseFile(filepath.Join(sqlDir, t.File), t.Table)
		if err != nil {
			return nil, fmt.Errorf("sqldump: %s: %w", t.File, err)
		}
		if rows == nil {
			rows = []Row{}
		}
		if err := dataset.WriteJSON(filepath.Join(outDir, t.Table+".json"), rows); err != nil {
			return nil, fmt.Errorf("sqldump: write %s: %w", t.Table, err)
		}
		summary[t.Table] = len(rows)
		l.Info("build_table_ok", "table", t.Table, "rows", len(rows))
	}
	slugs, err := MapSlugs(mapsDir)
	if err != nil {
		return nil, fmt.Errorf("sqldump: maps: %w", err)
	}
	if err := dataset.WriteJSON(filepath.Join(outDir, dataset.FileMapsIndex), slugs); err != nil {
		return nil, err
	}
	summary["maps"] = len(slugs)
	if err := dataset.WriteJSON(filepath.Join(outDir, dataset.FileSummary), summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// MapSlugs：目录下 *.svg 的小写文件名（不含扩展名），升序
func MapSlugs(dir string) ([]string, error) {
	slugs := []string{}
	if dir == "" {
		return slugs, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return slugs, nil
		}
		return nil, err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".svg") {
			continue
		}
		slugs = append(slugs, strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))))
	}
	sort.Strings(slugs)
	return slugs, nil
}
