package capability

import (
	"context"
	"fmt"
	"strings"
)

// TopicListName identifies the topic word-list capability.
const TopicListName = "topic_vocab"

const topicPrompt = `你是一位英文單字教師。以下是與主題相關的參考單字資料：

%s

請根據主題「%s」，列出約 30 個相關的英文單字或片語，以編號清單呈現。
每一項包含：
1. 單字或片語與繁體中文定義
2. 詞性
3. 使用說明
4. 一個英文例句與其繁體中文翻譯

優先挑選參考資料中出現的單字，不足時再補充常用單字。全部說明使用繁體中文。`

// NewTopicList creates the topic-listing capability: retrieve the most
// similar topic reference documents, then enumerate related words.
func NewTopicList(completer Completer, searcher Searcher, topK int) Capability {
	if topK <= 0 {
		topK = 1
	}
	return Capability{
		Name: TopicListName,
		Description: "列出特定主題的常用英文單字清單。只在使用者明確想學習某個主題的多個單字時使用，" +
			"例如：「我想學習飲食美食相關的單字」、「教我一些環保議題常用的詞彙」。" +
			"單一單字的問題不要使用這個功能。",
		invoke: func(ctx context.Context, input string) (string, error) {
			refs, err := searcher.Search(ctx, input, topK)
			if err != nil {
				return "", fmt.Errorf("topic retrieval: %w", err)
			}
			out, err := completer.Complete(ctx, fmt.Sprintf(topicPrompt, renderDocuments(refs), input))
			if err != nil {
				return "", fmt.Errorf("topic listing: %w", err)
			}
			return out, nil
		},
	}
}

// renderDocuments joins retrieved documents into the prompt's reference
// block. No documents is not an error; the model falls back to its own
// vocabulary.
func renderDocuments(docs []Document) string {
	if len(docs) == 0 {
		return "（無參考資料）"
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("【%s】\n%s", d.Topic, d.Content))
	}
	return strings.Join(parts, "\n\n")
}
