package capability

import (
	"context"
	"fmt"
)

// LookupName identifies the word-lookup capability.
const LookupName = "vocab_lookup"

// lookupPrompt instructs the model to answer in the word-card marker
// grammar. The markers must match what package card parses; the two are
// versioned together.
const lookupPrompt = `你是一位英文單字教師。請用繁體中文詳細解釋使用者想學習的英文單字或片語。
嚴格依照以下格式輸出，欄位標記必須逐字出現在行首：

單字：<單字或片語>
詞性：<詞性>
定義：<繁體中文定義>
使用建議：<使用情境與注意事項>
-> <英文例句一>
   (中文翻譯：<例句一的繁體中文翻譯>)
-> <英文例句二>
   (中文翻譯：<例句二的繁體中文翻譯>)
相關詞彙：<相關單字或片語，以逗號分隔>

要解釋的單字或片語：%s`

// NewLookup creates the word-lookup capability: a detailed explanation of a
// single word or phrase, rendered as a structured word card.
func NewLookup(completer Completer) Capability {
	return Capability{
		Name: LookupName,
		Description: "查詢單一英文單字或片語的詳細解釋、例句與用法。" +
			"例如：「解釋 'sustainability' 的意思」、「說明 'blockchain' 怎麼用」、" +
			"「'machine learning' 這個詞組是什麼意思？」",
		invoke: func(ctx context.Context, input string) (string, error) {
			out, err := completer.Complete(ctx, fmt.Sprintf(lookupPrompt, input))
			if err != nil {
				return "", fmt.Errorf("word lookup: %w", err)
			}
			return out, nil
		},
	}
}
