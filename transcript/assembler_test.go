package transcript_test

import (
	"testing"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/a2aview/a2aview/shared"
	"github.com/a2aview/a2aview/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func textArtifact(text string, append, lastChunk bool) a2aSchema.Artifact {
	return a2aSchema.Artifact{
		Parts:     []a2aSchema.Part{a2aSchema.TextPart(text)},
		Append:    shared.PointerTo(append),
		LastChunk: shared.PointerTo(lastChunk),
	}
}

func TestAssemblerAppendsTextFragments(t *testing.T) {
	a := transcript.NewAssembler(zap.NewNop())

	content, final := a.Apply("task-1", textArtifact("Hel", false, false))
	require.False(t, final)
	require.Len(t, content, 1)
	assert.Equal(t, "Hel", content[0].Text)

	content, final = a.Apply("task-1", textArtifact("lo", true, false))
	require.False(t, final)
	require.Len(t, content, 1)
	assert.Equal(t, "Hello", content[0].Text)

	content, final = a.Apply("task-1", textArtifact("!", true, true))
	require.True(t, final)
	require.Len(t, content, 1)
	assert.Equal(t, "Hello!", content[0].Text)
	assert.True(t, a.IsFinal("task-1"))
}

func TestAssemblerReplaceFragmentDiscardsPrevious(t *testing.T) {
	a := transcript.NewAssembler(zap.NewNop())

	a.Apply("task-1", textArtifact("draft answer", false, false))
	content, _ := a.Apply("task-1", textArtifact("final answer", false, false))
	require.Len(t, content, 1)
	assert.Equal(t, "final answer", content[0].Text)
}

func TestAssemblerDropsFragmentsAfterFinal(t *testing.T) {
	a := transcript.NewAssembler(zap.NewNop())

	a.Apply("task-1", textArtifact("done", false, true))
	content, final := a.Apply("task-1", textArtifact(" straggler", true, false))
	assert.True(t, final)
	require.Len(t, content, 1)
	assert.Equal(t, "done", content[0].Text)
}

func TestAssemblerAppendReplacesDataParts(t *testing.T) {
	a := transcript.NewAssembler(zap.NewNop())

	first := a2aSchema.Artifact{
		Parts:  []a2aSchema.Part{a2aSchema.DataPart(map[string]interface{}{"step": "one"})},
		Append: shared.PointerTo(false),
	}
	second := a2aSchema.Artifact{
		Parts:  []a2aSchema.Part{a2aSchema.DataPart(map[string]interface{}{"step": "two"})},
		Append: shared.PointerTo(true),
	}

	a.Apply("task-1", first)
	content, _ := a.Apply("task-1", second)
	// Data parts do not concatenate, the newest snapshot wins.
	require.Len(t, content, 1)
	assert.Equal(t, "two", content[0].Data["step"])
}

func TestAssemblerAppendAddsNewKinds(t *testing.T) {
	a := transcript.NewAssembler(zap.NewNop())

	a.Apply("task-1", textArtifact("summary", false, false))
	mixed := a2aSchema.Artifact{
		Parts:  []a2aSchema.Part{a2aSchema.DataPart(map[string]interface{}{"detail": 1})},
		Append: shared.PointerTo(true),
	}
	content, _ := a.Apply("task-1", mixed)

	require.Len(t, content, 2)
	assert.Equal(t, transcript.MediaKindText, content[0].MediaKind)
	assert.Equal(t, transcript.MediaKindData, content[1].MediaKind)
}

func TestAssemblerTracksTasksIndependently(t *testing.T) {
	a := transcript.NewAssembler(zap.NewNop())

	a.Apply("task-1", textArtifact("one", false, true))
	a.Apply("task-2", textArtifact("two", false, false))

	assert.True(t, a.IsFinal("task-1"))
	assert.False(t, a.IsFinal("task-2"))
	require.Len(t, a.Content("task-2"), 1)
	assert.Equal(t, "two", a.Content("task-2")[0].Text)

	a.Forget("task-1")
	assert.Empty(t, a.Content("task-1"))
	assert.False(t, a.IsFinal("task-1"))
}
