package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/vocabvoyage/vocabvoyage/internal/card"
	"github.com/vocabvoyage/vocabvoyage/internal/log"
	"github.com/vocabvoyage/vocabvoyage/internal/store"
)

// WelcomeMessage is stored as the first assistant turn of every fresh chat.
const WelcomeMessage = `👋 歡迎使用 VocabVoyage！

你可以：
1. 📖 查詢單字的詳細用法
   - "解釋 'sustainability' 的意思"
   - "說明 'blockchain' 怎麼用"
   - "'machine learning' 這個詞組是什麼意思？"
2. 📚 學習特定主題的單字
   - "我想學習飲食美食相關的單字"
   - "教我一些環保議題常用的詞彙"
   - "介紹金融科技領域的重要單字"
3. 📝 進行主題測驗
   - "測驗我的科技英文程度"
   - "出一份關於永續發展的詞彙測驗"
   - "測試我對商業用語的掌握"
4. 💭 提出英文相關協助
   - "幫我寫一篇關於冒險的英文故事"
   - "幫我潤飾這段英文文章"
`

// Store is the persistence surface the engine drives. Satisfied by both
// store.Store (local mode) and store.Mirror (synchronized-remote mode).
type Store interface {
	MessageSource
	GetOrCreateUser(ctx context.Context, username string) (string, error)
	ChatExists(ctx context.Context, chatID string) (bool, error)
	CreateChatSession(ctx context.Context, userID, name, chatID string) (string, error)
	AddMessage(ctx context.Context, chatID, role, content string) error
	AddVocabulary(ctx context.Context, userID, word, definition string, examples []string, notes string) error
}

// Request is one orchestration entry-point call. An empty ChatID makes the
// engine create a fresh session for the user.
type Request struct {
	Utterance string
	UserID    string
	ChatID    string
}

// Result carries the terminal turn plus what the engine did with it.
type Result struct {
	ChatID string
	Answer string
	Card   card.Card
	// Saved reports whether a word card was added to the vocabulary book.
	Saved bool
	// Note is user-facing informational text about the save outcome, empty
	// when nothing noteworthy happened.
	Note string
}

// Engine is the orchestration entry point: it assembles history, runs the
// graph, persists both turns and auto-saves structured word cards.
type Engine struct {
	store  Store
	graph  *Graph
	logger log.Logger
}

func NewEngine(st Store, graph *Graph, logger log.Logger) *Engine {
	return &Engine{store: st, graph: graph, logger: logger}
}

// NewChat creates a chat session for the user and seeds it with the welcome
// turn. The user account is created on first use; an empty name gets the
// store's default session name.
func (e *Engine) NewChat(ctx context.Context, user, name string) (string, error) {
	userID, err := e.store.GetOrCreateUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("resolve user: %w", err)
	}
	return e.createChat(ctx, userID, name, "")
}

// createChat inserts the session row and seeds the welcome turn. userID must
// already be resolved.
func (e *Engine) createChat(ctx context.Context, userID, name, chatID string) (string, error) {
	id, err := e.store.CreateChatSession(ctx, userID, name, chatID)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}
	if err := e.store.AddMessage(ctx, id, RoleAssistant, WelcomeMessage); err != nil {
		return "", fmt.Errorf("seed welcome turn: %w", err)
	}
	return id, nil
}

// ensureChat returns a usable session id: an empty id gets a fresh session,
// an unknown id gets a session created under that id so externally minted
// ids work on first use. Both are seeded with the welcome turn.
func (e *Engine) ensureChat(ctx context.Context, userID, chatID string) (string, error) {
	if chatID == "" {
		return e.createChat(ctx, userID, "", "")
	}
	exists, err := e.store.ChatExists(ctx, chatID)
	if err != nil {
		return "", err
	}
	if exists {
		return chatID, nil
	}
	return e.createChat(ctx, userID, "", chatID)
}

// Respond runs one full dialogue cycle and persists its outcome. The user
// account and the chat session are created on first use, so a brand-new user
// can start talking without any prior setup call. Errors from downstream
// calls propagate; the caller owns user-facing messaging for them.
func (e *Engine) Respond(ctx context.Context, req Request) (Result, error) {
	userID, err := e.store.GetOrCreateUser(ctx, req.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve user: %w", err)
	}

	chatID, err := e.ensureChat(ctx, userID, req.ChatID)
	if err != nil {
		return Result{}, err
	}

	history, err := RecentHistory(ctx, e.store, chatID)
	if err != nil {
		return Result{}, err
	}

	answer, err := e.graph.Run(ctx, history, req.Utterance)
	if err != nil {
		return Result{}, err
	}

	if err := e.store.AddMessage(ctx, chatID, RoleUser, req.Utterance); err != nil {
		return Result{}, fmt.Errorf("persist user turn: %w", err)
	}
	if err := e.store.AddMessage(ctx, chatID, RoleAssistant, answer.Content); err != nil {
		return Result{}, fmt.Errorf("persist assistant turn: %w", err)
	}

	res := Result{ChatID: chatID, Answer: answer.Content, Card: card.Parse(answer.Content)}
	if res.Card.Structured && res.Card.Word != "" {
		res.Saved, res.Note = e.saveCard(ctx, userID, res.Card)
	}

	e.logger.Info("dialogue cycle complete",
		"chat_id", chatID,
		"structured", res.Card.Structured,
		"saved", res.Saved)
	return res, nil
}

// saveCard adds the parsed word card to the user's vocabulary book. A
// duplicate word is a user-correctable condition, reported as informational
// text; storage failures are logged and reported but never fail the cycle,
// the answer itself is already committed.
func (e *Engine) saveCard(ctx context.Context, userID string, c card.Card) (bool, string) {
	err := e.store.AddVocabulary(ctx, userID, c.Word, c.Definition, c.Examples, formatNotes(c))
	switch {
	case err == nil:
		return true, fmt.Sprintf("已將 '%s' 加入你的單字本！", c.Word)
	case errors.Is(err, store.ErrDuplicateWord):
		return false, fmt.Sprintf("單字 '%s' 已經存在於您的單字本中", c.Word)
	default:
		e.logger.Warn("vocabulary save failed", "word", c.Word, "error", err)
		return false, fmt.Sprintf("保存單字時發生錯誤：%v", err)
	}
}

// formatNotes renders the card's secondary fields into the stored notes
// text.
func formatNotes(c card.Card) string {
	return fmt.Sprintf("`詞性: %s`\n`相關詞彙: %s`\n`使用建議: %s`",
		c.PartOfSpeech, c.RelatedWords, c.Tips)
}
