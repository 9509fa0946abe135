package cmd

import (
	"fmt"

	"DanceDeck/core/auth"

	"github.com/spf13/cobra"
)

var hashPassphraseCmd = &cobra.Command{
	Use:   "hash-passphrase <passphrase>",
	Short: "生成API口令的bcrypt哈希",
	Long:  `输出可写入 AUTH_PASSPHRASE_HASH 的bcrypt哈希，配合 JWT_SECRET 开启API鉴权。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPassphraseCmd)
}
