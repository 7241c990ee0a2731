package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vocabvoyage/vocabvoyage/internal/app"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "管理對話",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出對話",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(ctx context.Context, st app.Store, userID string) error {
			chats, err := st.UserChats(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(chats) == 0 {
				fmt.Fprintln(out, "還沒有任何對話。")
				return nil
			}
			for _, c := range chats {
				fmt.Fprintf(out, "%s  %s  (%s)\n",
					c.ChatID, c.Name, c.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

var chatsRenameCmd = &cobra.Command{
	Use:   "rename <chat-id> <name>",
	Short: "重新命名對話",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st app.Store, _ string) error {
			renamed, err := st.RenameChat(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if !renamed {
				return fmt.Errorf("找不到對話 %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已將對話改名為 '%s'\n", args[1])
			return nil
		})
	},
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <chat-id>",
	Short: "刪除對話及其所有訊息",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st app.Store, _ string) error {
			deleted, err := st.DeleteChat(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("找不到對話 %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已刪除對話")
			return nil
		})
	},
}

func init() {
	chatsCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "使用者名稱（必填）")
	chatsCmd.AddCommand(chatsListCmd, chatsRenameCmd, chatsDeleteCmd)
	rootCmd.AddCommand(chatsCmd)
}
