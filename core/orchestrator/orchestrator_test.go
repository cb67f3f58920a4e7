package orchestrator

import (
	"context"
	"testing"

	"github.com/siherrmann/ragcore/core/qa"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	orch, _, _ := testOrchestrator(t, "irrelevant")

	_, err := orch.Answer(context.Background(), "", model.DefaultQueryOptions())
	require.Error(t, err)
	assert.Equal(t, helper.KindBadInput, helper.KindOf(err))
}

func TestAnswerReturnsFixedRefusalWithoutChunks(t *testing.T) {
	orch, _, _ := testOrchestrator(t, "irrelevant")

	resp, err := orch.Answer(context.Background(), "anything at all", model.DefaultQueryOptions())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, qa.NoEvidenceAnswer, resp.Answer)
	assert.Empty(t, resp.Chunks)
	assert.Nil(t, resp.VerificationScore)
	assert.False(t, resp.FromMemory)
}

func TestAnswerSynthesizesFromRetrievedChunks(t *testing.T) {
	orch, chunks, documents := testOrchestrator(t, "The answer is grounded [1].")

	doc := &model.Document{Title: "Doc", Source: "test"}
	require.NoError(t, documents.InsertDocument(doc))
	chunk := &model.Chunk{DocumentID: int(doc.ID), Content: "some grounded fact", Path: "doc", Embedding: []float32{1, 2, 3, 4}}
	require.NoError(t, chunks.InsertChunk(chunk))

	opts := model.DefaultQueryOptions()
	opts.UseAmplification = false
	opts.UseSmartSelection = false

	resp, err := orch.Answer(context.Background(), "What is the fact?", opts)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "The answer is grounded [1].", resp.Answer)
	assert.NotEmpty(t, resp.Chunks)
	assert.False(t, resp.FromMemory)
	assert.NotZero(t, resp.MemoryID)
}

func TestAnswerShortCircuitsFromMemoryOnRepeatQuestion(t *testing.T) {
	orch, chunks, documents := testOrchestrator(t, "Cached answer [1].")

	doc := &model.Document{Title: "Doc", Source: "test"}
	require.NoError(t, documents.InsertDocument(doc))
	chunk := &model.Chunk{DocumentID: int(doc.ID), Content: "fact", Path: "doc", Embedding: []float32{5, 6, 7, 8}}
	require.NoError(t, chunks.InsertChunk(chunk))

	opts := model.DefaultQueryOptions()
	opts.UseAmplification = false
	opts.UseSmartSelection = false

	first, err := orch.Answer(context.Background(), "What is the cached fact?", opts)
	require.NoError(t, err)
	require.False(t, first.FromMemory)
	require.NotZero(t, first.MemoryID)

	second, err := orch.Answer(context.Background(), "What is the cached fact?", opts)
	require.NoError(t, err)
	assert.True(t, second.FromMemory)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.MemoryID, second.MemoryID)
}

func TestAnswerRespectsDisabledMemory(t *testing.T) {
	orch, chunks, documents := testOrchestrator(t, "Fresh answer every time [1].")

	doc := &model.Document{Title: "Doc", Source: "test"}
	require.NoError(t, documents.InsertDocument(doc))
	chunk := &model.Chunk{DocumentID: int(doc.ID), Content: "fact", Path: "doc", Embedding: []float32{9, 10, 11, 12}}
	require.NoError(t, chunks.InsertChunk(chunk))

	opts := model.DefaultQueryOptions()
	opts.UseMemory = false
	opts.UseAmplification = false
	opts.UseSmartSelection = false

	first, err := orch.Answer(context.Background(), "Never cached?", opts)
	require.NoError(t, err)
	assert.Zero(t, first.MemoryID)

	second, err := orch.Answer(context.Background(), "Never cached?", opts)
	require.NoError(t, err)
	assert.False(t, second.FromMemory)
}
