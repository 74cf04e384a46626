package transcript

import (
	"sync"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"go.uber.org/zap"
)

// Assembler accumulates streamed artifact fragments per task into final
// content. Fragments must be applied in delivery order; once a fragment with
// lastChunk is applied the task's artifact is sealed and later fragments are
// dropped as protocol anomalies.
type Assembler struct {
	mu      sync.Mutex
	logger  *zap.Logger
	content map[string][]ContentPart
	final   map[string]bool
}

// NewAssembler creates an empty assembler.
func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		logger:  logger.Named("assembler"),
		content: make(map[string][]ContentPart),
		final:   make(map[string]bool),
	}
}

// Apply folds one artifact fragment into the task's assembled content and
// returns the new content plus whether the artifact is now final.
func (a *Assembler) Apply(taskID string, artifact a2aSchema.Artifact) ([]ContentPart, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.final[taskID] {
		a.logger.Warn("Dropping artifact fragment received after final chunk",
			zap.String("taskID", taskID))
		return copyParts(a.content[taskID]), true
	}

	fragment := RenderParts(artifact.Parts)
	if artifact.Append != nil && *artifact.Append {
		a.content[taskID] = ApplyAppend(a.content[taskID], fragment)
	} else {
		a.content[taskID] = fragment
	}

	isFinal := artifact.LastChunk != nil && *artifact.LastChunk
	if isFinal {
		a.final[taskID] = true
	}
	return copyParts(a.content[taskID]), isFinal
}

// Content returns the currently assembled content for a task.
func (a *Assembler) Content(taskID string) []ContentPart {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyParts(a.content[taskID])
}

// IsFinal reports whether the task's artifact has been sealed.
func (a *Assembler) IsFinal(taskID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.final[taskID]
}

// Forget drops all assembled state for a task.
func (a *Assembler) Forget(taskID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.content, taskID)
	delete(a.final, taskID)
}

// ApplyAppend concatenates fragment parts onto existing content: text parts
// concatenate as strings onto the existing text part, non-text parts replace
// the existing part of the same kind. Parts of a kind not seen before are
// appended.
func ApplyAppend(existing, fragment []ContentPart) []ContentPart {
	out := copyParts(existing)
	for _, part := range fragment {
		idx := -1
		for i := range out {
			if out[i].MediaKind == part.MediaKind {
				idx = i
			}
		}
		if idx == -1 {
			out = append(out, part)
			continue
		}
		if part.MediaKind == MediaKindText {
			out[idx].Text += part.Text
		} else {
			out[idx].Data = part.Data
		}
	}
	return out
}

func copyParts(parts []ContentPart) []ContentPart {
	if parts == nil {
		return nil
	}
	out := make([]ContentPart, len(parts))
	copy(out, parts)
	return out
}
