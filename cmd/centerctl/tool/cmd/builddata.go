package cmd

import (
	"fmt"
	"sort"

	"center-lookup/internal/sqldump"

	"github.com/spf13/cobra"
)

var (
	sqlDir  string
	mapsDir string
)

// buildDataCmd converts SQL INSERT dumps into the JSON snapshot
var buildDataCmd = &cobra.Command{
	Use:   "build-data",
	Short: "由 SQL 转储（001_divisions.sql … 007_parties.sql）生成 JSON 数据目录",
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := sqldump.Build(sqlDir, mapsDir, dataDir)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := cmd.OutOrStdout()
		for _, k := range keys {
			fmt.Fprintf(out, "%-16s %d\n", k, counts[k])
		}
		return nil
	},
}

func init() {
	buildDataCmd.Flags().StringVar(&sqlDir, "sql", "sql", "SQL 转储目录")
	buildDataCmd.Flags().StringVar(&mapsDir, "maps", "maps", "选区 SVG 地图目录（可不存在）")
	rootCmd.AddCommand(buildDataCmd)
}
