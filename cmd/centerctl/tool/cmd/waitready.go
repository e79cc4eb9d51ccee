package cmd

import (
	"context"
	"fmt"
	"time"

	"center-lookup/internal/store"
	"center-lookup/internal/utils"

	"github.com/spf13/cobra"
)

var (
	waitTimeout  time.Duration
	waitInterval time.Duration
)

// waitreadyCmd waits until the database is reachable and holds centers
var waitreadyCmd = &cobra.Command{
	Use:   "waitready",
	Short: "等待数据库可连接且中心表非空（部署编排用）",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			return err
		}
		defer db.Close()
		st := store.AttachDB(db)
		deadline := time.Now().Add(waitTimeout)
		for time.Now().Before(deadline) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := st.CenterCount(ctx)
			cancel()
			if err == nil && n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "ready centers=%d\n", n)
				return nil
			}
			time.Sleep(waitInterval)
		}
		return fmt.Errorf("waitready 超时：%s", waitTimeout)
	},
}

func init() {
	waitreadyCmd.Flags().DurationVar(&waitTimeout, "timeout", 10*time.Minute, "等待超时")
	waitreadyCmd.Flags().DurationVar(&waitInterval, "interval", 2*time.Second, "探测间隔")
	rootCmd.AddCommand(waitreadyCmd)
}
