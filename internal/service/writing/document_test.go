package writing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/domain"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/repository/memory"
)

func TestDocumentUpload_ConvertsHTMLAndSearches(t *testing.T) {
	docs := NewDocumentService(memory.NewDocumentRepository(memory.NewStore()), 5, testLogger())
	ctx := context.Background()

	doc, err := docs.Upload(ctx, &writingSvc.UploadDocumentRequest{
		UserID:   testUser,
		Filename: "lighthouse.html",
		Content:  `<p>The keeper trims the <em>lamp</em> at dusk.</p><script>steal()</script>`,
	})
	require.NoError(t, err)
	assert.NotContains(t, doc.Content, "<p>")
	assert.NotContains(t, doc.Content, "steal")
	assert.Contains(t, doc.Content, "keeper")

	snippets, err := docs.Search(ctx, testUser, "keeper")
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "lighthouse.html", snippets[0].Filename)

	other, err := docs.Search(ctx, "someone-else", "keeper")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDocumentUpload_RejectsEmptyText(t *testing.T) {
	docs := NewDocumentService(memory.NewDocumentRepository(memory.NewStore()), 5, testLogger())

	_, err := docs.Upload(context.Background(), &writingSvc.UploadDocumentRequest{
		UserID:   testUser,
		Filename: "blank.html",
		Content:  "<script>only()</script>",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
