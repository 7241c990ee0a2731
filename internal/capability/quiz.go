package capability

import (
	"context"
	"fmt"
)

// QuizName identifies the quiz-generation capability.
const QuizName = "vocab_quiz"

const quizPrompt = `你是一位英文測驗出題老師。以下是與主題相關的參考單字資料：

%s

請針對主題「%s」設計一份詞彙測驗，依序包含三個部分：

第一部分：選擇題（5 題，每題四個選項 A-D）
第二部分：填空題（5 題，提供句子與提示）
第三部分：配對題（左欄單字、右欄定義各 5 個）

測驗最後附上「解答」區段，依部分列出所有答案。題目中的說明使用繁體中文。`

// NewQuiz creates the quiz-generation capability: retrieve topic reference
// documents, then produce a three-part assessment with an answer key.
func NewQuiz(completer Completer, searcher Searcher, topK int) Capability {
	if topK <= 0 {
		topK = 1
	}
	return Capability{
		Name: QuizName,
		Description: "產生特定主題的英文詞彙測驗。只在使用者明確要求測驗或想測試程度時使用，" +
			"例如：「測驗我的科技英文程度」、「出一份關於永續發展的詞彙測驗」。" +
			"單一單字的問題不要使用這個功能。",
		invoke: func(ctx context.Context, input string) (string, error) {
			refs, err := searcher.Search(ctx, input, topK)
			if err != nil {
				return "", fmt.Errorf("quiz retrieval: %w", err)
			}
			out, err := completer.Complete(ctx, fmt.Sprintf(quizPrompt, renderDocuments(refs), input))
			if err != nil {
				return "", fmt.Errorf("quiz generation: %w", err)
			}
			return out, nil
		},
	}
}
