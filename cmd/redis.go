package cmd

import (
	"fmt"

	"DanceDeck/db"
	"DanceDeck/logger"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试记录缓存使用的Redis连接，并进行基本读写操作。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(false)
		defer logger.Sync()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer func() {
			if err := db.CloseRedis(); err != nil {
				logger.Warn("close redis failed", logger.ErrorField(err))
			}
		}()
		fmt.Println("Redis连接成功！")

		if err := db.TestRedis(cmd.Context()); err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Println("Redis基本操作测试成功！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
