package cmd

import (
	"context"
	"fmt"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/ingest"
	"center-lookup/internal/migrate"
	"center-lookup/internal/utils"

	"github.com/spf13/cobra"
)

var importTimeout time.Duration

// importCmd loads the JSON snapshot into PostgreSQL, replacing existing rows
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "把数据目录导入 PostgreSQL（PG_* 环境变量），覆盖已有数据",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.LoadDir(dataDir)
		if err != nil {
			return err
		}
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			return err
		}
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("数据库不可用：%w", err)
		}
		if err := migrate.EnsureSchema(db); err != nil {
			return err
		}
		if err := ingest.ImportDataset(ctx, db, ds); err != nil {
			return err
		}
		s := ds.Summary()
		fmt.Fprintf(cmd.OutOrStdout(), "imported centers=%d constituencies=%d parties=%d\n", s.Centers, s.Constituencies, s.Parties)
		return nil
	},
}

func init() {
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 30*time.Minute, "导入超时")
	rootCmd.AddCommand(importCmd)
}
