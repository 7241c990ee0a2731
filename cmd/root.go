// Package cmd implements the vocabvoyage command-line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vocabvoyage/vocabvoyage/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "vocabvoyage",
	Short: "VocabVoyage - 你的英文單字學習助手",
	Long: `VocabVoyage 是一個對話式的英文單字學習助手。
它能解釋單字用法、整理主題單字清單、出題測驗，
並自動把查過的單字存進你的單字本。

直接執行 vocabvoyage 將進入互動式對話模式。`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

var flagVerbose bool

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "顯示除錯日誌")
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)
	return logger
}
