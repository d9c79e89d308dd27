package aria

import (
	"context"
	"strings"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
)

// ARIA is the platform's tutoring assistant. This core keeps the conversation
// bookkeeping and content grounding; the language model behind Completer is an
// external collaborator.

const historyCap = 50

type (
	// Completer produces the assistant's reply to a prompt.
	Completer interface {
		Complete(ctx context.Context, system, prompt string) (string, error)
	}

	Message struct {
		Role      string    `json:"role"` // "user" | "assistant"
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	// Question is a user's prompt to the assistant.
	Question struct {
		Text    string          `json:"text" validate:"required"`
		Subject content.Subject `json:"subject" validate:"omitempty,subject"`
	}

	// Answer is the assistant's reply, with bricks worth reviewing.
	Answer struct {
		Reply           string          `json:"reply"`
		SuggestedBricks []content.Brick `json:"suggested_bricks,omitempty"`
	}

	Service struct {
		completer Completer
		repo      content.Repository
		conf      *core.Config

		mu      sync.Mutex
		history map[string][]Message // userID -> conversation
	}
)

func (q *Question) Validate(validate *validator.Validate, translator ut.Translator) error {
	q.Text = core.CleanString(q.Text)
	return validate.Struct(q)
}

func NewService(completer Completer, repo content.Repository, conf *core.Config) *Service {
	return &Service{
		completer: completer,
		repo:      repo,
		conf:      conf,
		history:   make(map[string][]Message),
	}
}

// Ask sends the question to the completer and grounds the reply with related
// bricks from the content bank.
func (svc *Service) Ask(ctx context.Context, userID string, q Question) (Answer, error) {
	system := "Tu es ARIA, l'assistante pédagogique de " + svc.conf.AppName +
		". Réponds en français, avec bienveillance et précision."

	reply, err := svc.completer.Complete(ctx, system, q.Text)
	if err != nil {
		return Answer{}, err
	}

	now := time.Now().UTC()
	svc.appendHistory(userID,
		Message{Role: "user", Content: q.Text, CreatedAt: now},
		Message{Role: "assistant", Content: reply, CreatedAt: now},
	)

	answer := Answer{Reply: reply}
	if q.Subject != "" {
		bricks, err := svc.repo.FilterBricks(content.QueryFilter{
			Subject: q.Subject,
			Tags:    keywords(q.Text),
			Limit:   3,
		})
		if err == nil { // suggestions are best-effort
			answer.SuggestedBricks = bricks
		}
	}
	return answer, nil
}

func (svc *Service) History(userID string) []Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	msgs := svc.history[userID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (svc *Service) Reset(userID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.history, userID)
}

func (svc *Service) appendHistory(userID string, msgs ...Message) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	hist := append(svc.history[userID], msgs...)
	if len(hist) > historyCap {
		hist = hist[len(hist)-historyCap:]
	}
	svc.history[userID] = hist
}

// keywords extracts the longer words of a question for tag matching.
func keywords(text string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?«»\"'()")
		if len([]rune(w)) >= 5 {
			words = append(words, w)
		}
	}
	if len(words) > 5 {
		words = words[:5]
	}
	return words
}
