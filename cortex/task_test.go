package cortex

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A trivially solvable task must be solved and recorded: the stage
// ratchet needs three target crossings, so the run solves within the
// first few epochs.
func TestTaskSolvesTrivialTask(t *testing.T) {
	conf := testConf(2, 1)
	conf.Net.Init.Count = 6
	conf.Species.Enabled = false
	conf.Fitness.Target = 1.0
	conf.Task.Runs = 1
	conf.Task.Epochs = 10
	conf.Task.Threads = 2

	task, err := NewTask(conf, func(net *Network) {
		net.Evaluate([]float64{0.5, 0.5})
		net.SetFitness(1.0)
	})
	require.NoError(t, err)
	defer task.Close()

	task.Execute()

	assert.True(t, task.Solved())
	require.NotNil(t, task.Champion())
	require.Equal(t, 1, task.History().Runs())
	assert.Equal(t, 1.0, task.History().RunMean(0, SuccessRate))
	assert.Greater(t, task.History().RunMean(0, Evaluations), 0.0)
}

// An evaluator that never reports a fitness leaves the network's score
// untouched; the run simply fails to solve.
func TestTaskEvaluatorMisuse(t *testing.T) {
	conf := testConf(2, 1)
	conf.Net.Init.Count = 4
	conf.Species.Enabled = false
	conf.Fitness.Target = 1.0
	conf.Task.Runs = 1
	conf.Task.Epochs = 2
	conf.Task.Threads = 1

	task, err := NewTask(conf, func(net *Network) {
		net.Evaluate([]float64{1.0, 1.0})
		// No SetFitness call.
	})
	require.NoError(t, err)
	defer task.Close()

	task.Execute()
	assert.False(t, task.Solved())
	assert.Equal(t, 0.0, task.History().RunMean(0, SuccessRate))
}

// A panicking evaluator counts as an unsuccessful evaluation and does
// not bring the run down.
func TestTaskSurvivesEvaluatorPanic(t *testing.T) {
	conf := testConf(2, 1)
	conf.Net.Init.Count = 4
	conf.Species.Enabled = false
	conf.Task.Runs = 1
	conf.Task.Epochs = 2
	conf.Task.Threads = 2

	var calls atomic.Int64
	task, err := NewTask(conf, func(net *Network) {
		calls.Add(1)
		panic("evaluator exploded")
	})
	require.NoError(t, err)
	defer task.Close()

	task.Execute()
	assert.False(t, task.Solved())
	assert.Greater(t, calls.Load(), int64(0))
}

func TestNewTaskRejectsBadConfig(t *testing.T) {
	conf := testConf(2, 1)
	conf.Task.Threads = 0

	_, err := NewTask(conf, func(net *Network) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task.threads")

	_, err = NewTask(testConf(2, 1), nil)
	require.Error(t, err)
}
