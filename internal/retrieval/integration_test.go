package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lectern-dev/lectern/internal/chunker"
	"github.com/lectern-dev/lectern/internal/chunkstore"
	"github.com/lectern-dev/lectern/internal/ingest"
	"github.com/lectern-dev/lectern/internal/retrieval"
	"github.com/lectern-dev/lectern/internal/testutil"
)

// TestIngestThenRetrieve runs the full path against a real database:
// documents go through the pipeline and come back out of the engine.
func TestIngestThenRetrieve(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chunkstore.New(db.Pool, 384, nil)
	embedder := testutil.NewFakeEmbedder(384)

	pipeline := ingest.New(store, embedder, chunker.New(chunker.DefaultConfig()), ingest.Options{}, nil)
	engine := retrieval.New(store, embedder, nil)

	calcText := "derivatives and limits" + chunker.PageSeparator + "integration by parts"
	bioText := "cell membranes" + chunker.PageSeparator + "osmosis and diffusion"

	n, err := pipeline.Ingest(ctx, ingest.Request{
		FileID: 1, SubjectCode: "MATH", FileType: chunker.FileTypePDF, Text: calcText,
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = pipeline.Ingest(ctx, ingest.Request{
		FileID: 2, SubjectCode: "BIO", FileType: chunker.FileTypePDF, Text: bioText,
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// The deterministic embedder maps equal text to equal vectors, so the
	// literal page text is its own best match.
	results, err := engine.Retrieve(ctx, "integration by parts", retrieval.WithTopK(4))
	require.NoError(t, err)
	require.Len(t, results, 4)
	require.Equal(t, "integration by parts", results[0].Chunk.Content)
	require.InDelta(t, 1.0, results[0].Score, 1e-5)

	// Subject filter holds even when the best global match is elsewhere.
	results, err = engine.Retrieve(ctx, "integration by parts",
		retrieval.WithTopK(4), retrieval.WithSubject("BIO"))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.Equal(t, "BIO", r.Chunk.SubjectCode)
	}

	// Re-ingestion replaces the old chunk set wholesale.
	n, err = pipeline.Ingest(ctx, ingest.Request{
		FileID: 1, SubjectCode: "MATH", FileType: chunker.FileTypePDF, Text: "a single revised page",
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	chunks, err := store.ListByFile(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "a single revised page", chunks[0].Content)

	// Grouped retrieval surfaces each document once.
	groups, err := engine.RetrieveGrouped(ctx, "osmosis and diffusion", retrieval.WithTopK(3))
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	require.Equal(t, int64(2), groups[0].FileID)
}
