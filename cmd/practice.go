package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"DanceDeck/core/importer"
	"DanceDeck/internal/app"
	"DanceDeck/logger"
	"DanceDeck/model"
	"DanceDeck/repository"
	"DanceDeck/tui"

	"github.com/spf13/cobra"
)

var practiceDuration time.Duration

var practiceCmd = &cobra.Command{
	Use:   "practice <video-id|file>",
	Short: "在终端里练习一个视频的循环片段",
	Long: `打开终端练习界面。参数可以是已保存记录的ID，也可以是本地视频文件路径，
文件会先登记到记录库。终端无法解码视频，播放进度由时钟模拟。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(true)
		defer logger.Sync()
		ctx := cmd.Context()

		stack, err := app.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer stack.Close()

		v, err := resolveVideo(ctx, stack.Repo, args[0])
		if err != nil {
			return err
		}
		if practiceDuration > 0 {
			v.DurationMillis = float64(practiceDuration.Milliseconds())
			if err := stack.Repo.Save(ctx, v); err != nil {
				return err
			}
		}
		if v.DurationMillis <= 0 {
			return fmt.Errorf("no duration recorded for %s, pass --duration", v.ID)
		}

		return tui.Run(v, stack.Repo.Save, tui.Config{
			SaveDelay: cfg.SaveDebounce,
			Logger:    logger.Named("practice"),
		})
	},
}

// resolveVideo treats an existing path as a local file to register and
// anything else as a record id.
func resolveVideo(ctx context.Context, repo repository.VideoRepository, arg string) (*model.Video, error) {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		v, err := repo.Load(ctx, arg)
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, fmt.Errorf("%q is neither a saved video id nor a file", arg)
		}
		return v, err
	}

	path, err := filepath.Abs(arg)
	if err != nil {
		return nil, err
	}
	im := importer.New(filepath.Dir(path), repo, logger.Named("importer"))
	if _, err := im.Register(ctx, path); err != nil {
		return nil, err
	}
	return repo.FindByURI(ctx, importer.FileURI(path))
}

func init() {
	rootCmd.AddCommand(practiceCmd)
	practiceCmd.Flags().DurationVarP(&practiceDuration, "duration", "d", 0, "视频时长，例如 3m12s（记录中没有时长时必填）")
}
