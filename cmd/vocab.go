package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vocabvoyage/vocabvoyage/internal/app"
	"github.com/vocabvoyage/vocabvoyage/internal/config"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "管理單字本",
}

var vocabListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出已儲存的單字",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(ctx context.Context, st app.Store, userID string) error {
			entries, err := st.UserVocabulary(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "還沒有儲存的單字。開始聊天學習來添加新單字吧！")
				return nil
			}
			for _, e := range entries {
				printVocabEntry(out, e.Word, e.Definition, e.Examples, e.Notes)
			}
			return nil
		})
	},
}

var vocabDeleteCmd = &cobra.Command{
	Use:   "delete <word>",
	Short: "刪除指定的單字",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st app.Store, userID string) error {
			deleted, err := st.DeleteVocabulary(ctx, userID, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("找不到單字 '%s'", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已刪除 '%s'\n", args[0])
			return nil
		})
	},
}

func init() {
	vocabCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "使用者名稱（必填）")
	vocabCmd.AddCommand(vocabListCmd, vocabDeleteCmd)
	rootCmd.AddCommand(vocabCmd)
}

func printVocabEntry(out io.Writer, word, definition string, examples []string, notes string) {
	fmt.Fprintf(out, "📝 %s\n", word)
	fmt.Fprintf(out, "   定義：%s\n", definition)
	for _, ex := range examples {
		fmt.Fprintf(out, "   - %s\n", ex)
	}
	if notes != "" {
		fmt.Fprintf(out, "   筆記：%s\n", notes)
	}
	fmt.Fprintln(out)
}

// withStore runs fn against the opened store and the resolved user. Shared
// by the vocab and chats subcommands; these touch only the database, so no
// model client or credential is involved.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st app.Store, userID string) error) error {
	if flagUser == "" {
		return errors.New("請以 --user 指定使用者名稱")
	}

	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	st, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close error", "error", err)
		}
	}()

	userID, err := st.GetOrCreateUser(ctx, flagUser)
	if err != nil {
		return fmt.Errorf("resolving user: %w", err)
	}
	return fn(ctx, st, userID)
}

func closeQuietly(a *app.App, logger log.Logger) {
	if err := a.Close(); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
}
