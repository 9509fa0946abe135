package cmd

import (
	"errors"
	"fmt"
	"time"

	"DanceDeck/internal/app"
	"DanceDeck/logger"
	"DanceDeck/repository"
	"DanceDeck/storage"

	"github.com/spf13/cobra"
)

var (
	minioVideo   string
	minioBackup  bool
	minioRestore string
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO记录快照管理",
	Long:  `查看、创建和恢复存放在MinIO存储桶中的视频记录快照。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(false)
		defer logger.Sync()
		if !cfg.MinioEnabled {
			return errors.New("MinIO未启用，请设置 MINIO_ENABLED=true")
		}
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		ctx := cmd.Context()
		stack, err := app.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer stack.Close()
		snaps := stack.Snapshots
		out := cmd.OutOrStdout()

		switch {
		case minioRestore != "":
			v, err := snaps.Fetch(ctx, minioRestore)
			if err != nil {
				return err
			}
			err = stack.Repo.Save(ctx, v)
			if errors.Is(err, repository.ErrVideoNotFound) {
				err = stack.Repo.Create(ctx, v)
			}
			if err != nil {
				return fmt.Errorf("恢复快照失败: %w", err)
			}
			fmt.Fprintf(out, "已恢复 %s (%s)\n", v.ID, minioRestore)
		case minioBackup:
			if minioVideo == "" {
				return errors.New("备份需要指定 --video")
			}
			v, err := stack.Repo.Load(ctx, minioVideo)
			if err != nil {
				return err
			}
			key, err := snaps.Backup(ctx, v, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, key)
		default:
			if minioVideo == "" {
				return errors.New("需要指定 --video")
			}
			list, err := snaps.List(ctx, minioVideo)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "没有快照")
			}
			for _, s := range list {
				fmt.Fprintf(out, "%s  %s  %s\n", s.TakenAt.Format(time.RFC3339), storage.FormatSize(s.Size), s.Key)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioVideo, "video", "v", "", "视频记录ID")
	minioCmd.Flags().BoolVarP(&minioBackup, "backup", "b", false, "为 --video 创建一份快照")
	minioCmd.Flags().StringVarP(&minioRestore, "restore", "r", "", "从指定快照键恢复记录")

	minioCmd.Example = `  # 列出某条记录的快照
  dancedeck minio --video 6f1c...

  # 创建快照
  dancedeck minio -b --video 6f1c...

  # 从快照恢复
  dancedeck minio --restore records/6f1c.../1718000000000.json`
}
