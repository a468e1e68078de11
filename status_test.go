package goident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateStatus(t *testing.T) {
	w, err := preprocessTable.Translate(Status{}, 0)
	assert.NoError(t, err)
	assert.Nil(t, w)

	w, err = preprocessTable.Translate(Status{Warn: 2}, 3)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 3, w.Experiment)
	assert.Equal(t, 2, w.Code)
	assert.Equal(t, RoutinePreprocess, w.Routine)
	assert.Contains(t, w.Message, "QR algorithm was then used")
	assert.Contains(t, w.String(), "experiment 3")

	// An error wins over a warning of the same call.
	w, err = estimateTable.Translate(Status{Info: 7, Warn: 4}, -1)
	assert.Nil(t, w)
	var ne *NumericalError
	require.ErrorAs(t, err, &ne)
	assert.ErrorIs(t, err, ErrNumericalFailure)
	assert.Equal(t, 7, ne.Info)
	assert.Equal(t, -1, ne.Experiment)
	assert.Contains(t, err.Error(), "less than N stable eigenvalues")
	assert.NotContains(t, err.Error(), "experiment")
}

func TestStatusMessages(t *testing.T) {
	_, err := initialStateTable.Translate(Status{Info: -26}, 1)
	require.Error(t, err)
	assert.Equal(t, "ident: initial state: experiment 1: argument 26 had an illegal value", err.Error())

	_, err = preprocessTable.Translate(Status{Info: 9}, 0)
	assert.Contains(t, err.Error(), "unknown error, info = 9")

	w, _ := initialStateTable.Translate(Status{Warn: 6}, 0)
	assert.Contains(t, w.Message, "the matrix A is unstable")

	w, _ = initialStateTable.Translate(Status{Warn: 11}, 0)
	assert.Equal(t, "unknown warning, iwarn = 11", w.Message)

	// Counted warnings repeat the count ahead of the single message.
	w, _ = placeTable.Translate(Status{Warn: 3}, -1)
	assert.Equal(t, "3: 3 violations of the numerical stability condition NORM(F) <= 100*NORM(A)/NORM(B) "+
		"occured during the assignment of eigenvalues.", w.Message)

	// lyap has no message list.
	_, err = lyapTable.Translate(Status{Info: 4}, -1)
	assert.Equal(t, "lyap: returned info = 4", err.Error())
}

func TestWarnings(t *testing.T) {
	ws := Warnings{
		{Routine: RoutinePreprocess, Experiment: 0, Code: 1, Message: "a"},
		{Routine: RoutineEstimate, Experiment: -1, Code: 5, Message: "b"},
	}
	assert.True(t, ws.Has(RoutineEstimate, 5))
	assert.False(t, ws.Has(RoutinePreprocess, 5))
	assert.Equal(t, "ident: preprocess: experiment 0: warning a\nident: estimate: warning b", ws.String())
	assert.True(t, Status{}.OK())
	assert.False(t, Status{Warn: 1}.OK())
}
