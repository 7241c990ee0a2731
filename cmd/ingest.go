package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vocabvoyage/vocabvoyage/internal/app"
	"github.com/vocabvoyage/vocabvoyage/internal/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "匯入主題單字文件到知識庫",
	Long: `將主題單字文件嵌入並寫入向量知識庫，供主題單字清單與測驗使用。
支援 .txt（可在第一行以 "Topic: 主題名稱" 指定主題）與 .pdf。
需要在設定中啟用 retrieval。`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if !cfg.Retrieval.Enabled {
			return errors.New("retrieval 未啟用，請先在設定檔中開啟 retrieval.enabled")
		}

		ctx := cmd.Context()
		a, err := app.Setup(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing application: %w", err)
		}
		defer closeQuietly(a, logger)

		added, err := a.Knowledge.IngestFiles(ctx, args)
		fmt.Fprintf(cmd.OutOrStdout(), "已匯入 %d / %d 份文件\n", added, len(args))
		if err != nil {
			return fmt.Errorf("部分文件匯入失敗: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
