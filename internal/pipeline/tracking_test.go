package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	tr := NewTracker("r1")

	tr.StartStage("one", 10)
	tr.AddMissing(3)
	tr.StartStage("two", 7)
	tr.FailStage(errors.New("bad input"))
	tr.SkipStage("three", "nothing to do")
	tr.EndStage(1)

	stages := tr.Stages()
	require.Len(t, stages, 3)

	assert.Equal(t, "one", stages[0].StageName)
	assert.Equal(t, "completed", stages[0].Status)
	assert.Equal(t, 10, stages[0].RecordsOut)
	assert.Equal(t, 3, stages[0].MissingCells)

	assert.Equal(t, "failed", stages[1].Status)
	assert.Equal(t, "bad input", stages[1].Detail)

	assert.Equal(t, "skipped", stages[2].Status)
	assert.Equal(t, "nothing to do", stages[2].Detail)
	assert.GreaterOrEqual(t, tr.Elapsed().Nanoseconds(), int64(0))
}
