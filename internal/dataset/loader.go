// 包 dataset：参考数据快照的类型与加载
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"center-lookup/internal/logger"
)

// 导出文件名约定（与 centerctl build-data 输出一致）
const (
	FileDivisions      = "divisions.json"
	FileDistricts      = "districts.json"
	FileUpazilas       = "upazilas.json"
	FileConstituencies = "constituencies.json"
	FileUnions         = "unions.json"
	FileCenters        = "centers.json"
	FileParties        = "parties.json"
	FileMapsIndex      = "maps_index.json"
	FileSummary        = "summary.json"
)

// Dataset：一次加载得到的只读快照
type Dataset struct {
	Divisions      []Division
	Districts      []District
	Upazilas       []Upazila
	Constituencies []Constituency
	Unions         []Union
	Centers        []Center
	Parties        []Party
	// MapSlugs：本地地图资源标识（小写）；文件缺失时为空
	MapSlugs []string
	LoadedAt time.Time
}

// Summary：数据集计数
type Summary struct {
	Centers        int `json:"centers"`
	Constituencies int `json:"constituencies"`
	Parties        int `json:"parties"`
}

func (d *Dataset) Summary() Summary {
	return Summary{Centers: len(d.Centers), Constituencies: len(d.Constituencies), Parties: len(d.Parties)}
}

// 文档注释：从数据目录加载快照
// 背景：七个必需文件任一缺失或格式错误即整体失败，由调用方提示“数据加载失败”；地图索引为可选文件。
// 约束：不做重试；加载成功前任何筛选都不可用。
func LoadDir(dir string) (*Dataset, error) {
	l := logger.L()
	ds := &Dataset{}
	required := []struct {
		name string
		dst  any
	}{
		{FileDivisions, &ds.Divisions},
		{FileDistricts, &ds.Districts},
		{FileUpazilas, &ds.Upazilas},
		{FileConstituencies, &ds.Constituencies},
		{FileUnions, &ds.Unions},
		{FileCenters, &ds.Centers},
		{FileParties, &ds.Parties},
	}
	for _, f := range required {
		if err := readJSON(filepath.Join(dir, f.name), f.dst); err != nil {
			return nil, fmt.Errorf("dataset: load %s: %w", f.name, err)
		}
	}
	var slugs []string
	if err := readJSON(filepath.Join(dir, FileMapsIndex), &slugs); err != nil {
		l.Debug("dataset_maps_index_skip", "err", err)
	}
	ds.MapSlugs = normalizeSlugs(slugs)
	ds.LoadedAt = time.Now()
	l.Info("dataset_load_ok", "dir", dir, "centers", len(ds.Centers), "constituencies", len(ds.Constituencies), "maps", len(ds.MapSlugs))
	return ds, nil
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return errors.New("empty file")
	}
	return json.Unmarshal(b, dst)
}

func normalizeSlugs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WriteJSON：以紧凑格式写出任意列表（build-data 与测试夹具共用）
func WriteJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
