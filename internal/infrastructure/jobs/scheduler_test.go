package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	n   int64
	err error
}

func (f fakeCounter) CountOverdue(context.Context) (int64, error) { return f.n, f.err }

type fakeGauge struct{ last int64 }

func (g *fakeGauge) OverdueTasks(n int64) { g.last = n }

func TestOverdueSweep_Run(t *testing.T) {
	g := &fakeGauge{last: -1}
	job := NewOverdueSweep(fakeCounter{n: 7}, g, zerolog.Nop())

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, int64(7), g.last)
}

func TestOverdueSweep_ErrorKeepsGauge(t *testing.T) {
	g := &fakeGauge{last: 3}
	job := NewOverdueSweep(fakeCounter{err: errors.New("db caída")}, g, zerolog.Nop())

	_, err := job.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int64(3), g.last)
}

func TestScheduler_AddOverdueSweep(t *testing.T) {
	job := NewOverdueSweep(fakeCounter{}, nil, zerolog.Nop())

	s := NewScheduler(zerolog.Nop())
	require.NoError(t, s.AddOverdueSweep("", job))
	assert.Equal(t, 0, s.Entries())

	require.NoError(t, s.AddOverdueSweep("*/15 * * * *", job))
	assert.Equal(t, 1, s.Entries())

	assert.Error(t, s.AddOverdueSweep("no es un spec", job))

	s.Start()
	s.Stop()
}
