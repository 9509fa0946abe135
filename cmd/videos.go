package cmd

import (
	"fmt"
	"strings"
	"time"

	"DanceDeck/core/library"
	"DanceDeck/internal/app"
	"DanceDeck/logger"
	"DanceDeck/model"

	"github.com/spf13/cobra"
)

var (
	videosTags string
	videosMode string

	addTitle    string
	addTags     []string
	addSource   string
	addDuration time.Duration
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "列出练习视频记录",
	Long:  `按最近更新顺序列出记录，可按标签筛选（--mode and 要求全部命中，or 命中任一即可）。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(false)
		defer logger.Sync()
		stack, err := app.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer stack.Close()

		list, err := stack.Repo.List(cmd.Context())
		if err != nil {
			return err
		}
		query := library.ParseTagQuery(videosTags)
		mode := library.ParseMode(videosMode)

		out := cmd.OutOrStdout()
		shown := 0
		for _, v := range list {
			if !library.MatchTags(v.Tags, query, mode) {
				continue
			}
			shown++
			fmt.Fprintf(out, "%s  %-32s  %6s  %3.0f bpm  %2d beats  %s\n",
				v.ID, truncate(v.Title, 32), library.FormatTime(v.DurationMillis),
				v.BPM, v.LoopLengthBeats, strings.Join(v.Tags, ","))
		}
		if shown == 0 {
			fmt.Fprintln(out, "no videos")
		}
		return nil
	},
}

var videosAddCmd = &cobra.Command{
	Use:   "add <uri>",
	Short: "新增一条视频记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(false)
		defer logger.Sync()
		source := model.SourceType(strings.ToLower(addSource))
		if !source.Valid() {
			return fmt.Errorf("unknown source %q", addSource)
		}

		stack, err := app.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer stack.Close()

		tags := []string{}
		for _, t := range addTags {
			tags, _ = library.AddTag(tags, t)
		}
		v := model.NewVideo(model.CreateVideoRequest{
			SourceType:     source,
			URI:            args[0],
			Title:          addTitle,
			Tags:           tags,
			DurationMillis: float64(addDuration.Milliseconds()),
		}, time.Now())
		if err := stack.Repo.Create(cmd.Context(), v); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v.ID)
		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(videosCmd)
	videosCmd.AddCommand(videosAddCmd)

	videosCmd.Flags().StringVarP(&videosTags, "tags", "t", "", "按标签筛选，逗号或空格分隔")
	videosCmd.Flags().StringVarP(&videosMode, "mode", "m", "and", "标签匹配方式: and 或 or")

	videosAddCmd.Flags().StringVar(&addTitle, "title", "", "标题")
	videosAddCmd.Flags().StringSliceVar(&addTags, "tag", nil, "标签，可重复")
	videosAddCmd.Flags().StringVar(&addSource, "source", string(model.SourceLocal), "来源: local, youtube, tiktok, instagram")
	videosAddCmd.Flags().DurationVar(&addDuration, "duration", 0, "视频时长，例如 3m12s")
}
