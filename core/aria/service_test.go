package aria_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-reussite/backend/core/aria"
	"github.com/nexus-reussite/backend/core/content"
	inmemdb "github.com/nexus-reussite/backend/storage/database/inmem"
	testutil "github.com/nexus-reussite/backend/tests"
)

func newTestService(t *testing.T) (*aria.Service, content.Repository) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewBrickRepository(db)
	svc := aria.NewService(aria.NewSimulatedCompleter(), repo, testutil.NewConfig())
	return svc, repo
}

func TestService_Ask(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	testutil.CreateBrick(t, repo, "La dérivée en un point", content.TypeDefinition, func(b *content.Brick) {
		b.Tags = []string{"dérivée"}
	})
	testutil.CreateBrick(t, repo, "Loi d'Ohm", content.TypeFormula, func(b *content.Brick) {
		b.Subject = content.SubjectPhysChem
		b.Tags = []string{"tension"}
	})

	answer, err := svc.Ask(ctx, "u1", aria.Question{
		Text:    "Je ne comprends pas la dérivée d'un produit",
		Subject: content.SubjectMathematics,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Reply)
	require.Len(t, answer.SuggestedBricks, 1)
	assert.Equal(t, "La dérivée en un point", answer.SuggestedBricks[0].Title)

	// replies are deterministic for a given question
	again, err := svc.Ask(ctx, "u1", aria.Question{Text: "Je ne comprends pas la dérivée d'un produit"})
	require.NoError(t, err)
	assert.Equal(t, answer.Reply, again.Reply)
	assert.Empty(t, again.SuggestedBricks, "no subject means no suggestions")
}

func TestService_History(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "u1", aria.Question{Text: "Comment factoriser un polynôme ?"})
	require.NoError(t, err)
	_, err = svc.Ask(ctx, "u2", aria.Question{Text: "Autre conversation"})
	require.NoError(t, err)

	hist := svc.History("u1")
	require.Len(t, hist, 2)
	assert.Equal(t, "user", hist[0].Role)
	assert.Equal(t, "Comment factoriser un polynôme ?", hist[0].Content)
	assert.Equal(t, "assistant", hist[1].Role)
	assert.NotEmpty(t, hist[1].Content)

	// histories are per user
	assert.Len(t, svc.History("u2"), 2)
	assert.Empty(t, svc.History("u3"))

	svc.Reset("u1")
	assert.Empty(t, svc.History("u1"))
	assert.Len(t, svc.History("u2"), 2, "reset only clears the given user")
}

func TestService_HistoryCap(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// each question appends two messages; push well past the retention cap
	for i := 0; i < 30; i++ {
		_, err := svc.Ask(ctx, "u1", aria.Question{Text: fmt.Sprintf("Question numéro %d", i)})
		require.NoError(t, err)
	}

	hist := svc.History("u1")
	require.Len(t, hist, 50)
	assert.Equal(t, "Question numéro 5", hist[0].Content, "oldest messages are evicted first")
}
