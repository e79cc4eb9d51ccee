package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"center-lookup/internal/logger"
	"center-lookup/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dataDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "centerctl",
	Short: "投票中心查询运维工具",
	Long:  `centerctl 提供数据构建、导入数据库、就绪探测与交互式查询等子命令。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("data", "env", ".env"))
		logger.Setup()
		if !cmd.Flags().Changed("data") {
			dataDir = utils.EnvString("DATA_DIR", dataDir)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "data", "data directory holding the JSON snapshot")
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
