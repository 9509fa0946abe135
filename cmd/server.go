package cmd

import (
	"DanceDeck/logger"
	"DanceDeck/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动DanceDeck服务器",
	Long:  `启动HTTP API与练习会话WebSocket服务，可选监视导入目录`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(false)
	defer logger.Sync()
	return server.Start(cfg)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
