package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vocabvoyage/vocabvoyage/internal/app"
	"github.com/vocabvoyage/vocabvoyage/internal/config"
	"github.com/vocabvoyage/vocabvoyage/internal/dialog"
)

var (
	flagUser string
	flagChat string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "進入互動式對話模式",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&flagUser, "user", "u", "", "使用者名稱（必填）")
	chatCmd.Flags().StringVarP(&flagChat, "chat", "c", "", "繼續指定的對話（空白時開新對話）")
	rootCmd.AddCommand(chatCmd)

	// The root command doubles as chat; it needs the same flags.
	rootCmd.Flags().StringVarP(&flagUser, "user", "u", "", "使用者名稱（必填）")
	rootCmd.Flags().StringVarP(&flagChat, "chat", "c", "", "繼續指定的對話（空白時開新對話）")
}

func runChat(cmd *cobra.Command, _ []string) error {
	if flagUser == "" {
		return errors.New("請以 --user 指定使用者名稱")
	}

	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	userID, err := a.Store.GetOrCreateUser(ctx, flagUser)
	if err != nil {
		return fmt.Errorf("resolving user: %w", err)
	}

	out := cmd.OutOrStdout()
	chatID := flagChat
	if chatID == "" {
		if chatID, err = a.Engine.NewChat(ctx, userID, ""); err != nil {
			return fmt.Errorf("creating chat: %w", err)
		}
		fmt.Fprint(out, dialog.WelcomeMessage+"\n")
	}

	return chatLoop(ctx, a.Engine, cmd.InOrStdin(), out, userID, chatID)
}

// chatLoop reads utterances line by line until EOF, /quit, or cancellation.
// Input is read on its own goroutine so a pending read cannot outlive the
// signal context.
func chatLoop(ctx context.Context, engine *dialog.Engine, in io.Reader, out io.Writer, userID, chatID string) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(out, "你> ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok = <-lines:
			if !ok {
				return <-scanErr
			}
		}

		utterance := strings.TrimSpace(line)
		if utterance == "" {
			continue
		}
		if utterance == "/quit" || utterance == "/exit" {
			break
		}

		res, err := engine.Respond(ctx, dialog.Request{
			Utterance: utterance,
			UserID:    userID,
			ChatID:    chatID,
		})
		if err != nil {
			fmt.Fprintf(out, "發生錯誤：%v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n%s\n", res.Answer)
		if res.Note != "" {
			fmt.Fprintf(out, "（%s）\n", res.Note)
		}
		fmt.Fprintln(out)
	}
	return nil
}
