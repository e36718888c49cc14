package tracker

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/driftcars/autopilot/internal/channel"
	"github.com/driftcars/autopilot/internal/navigation"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify implementations satisfy Source
var (
	_ Source = (*Simulator)(nil)
	_ Source = (*Replay)(nil)
)

func TestParseSample(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    core.TrackingSample
		wantErr bool
	}{
		{
			name:   "four fields",
			fields: []string{"10.5", "20", "3", "-4"},
			want:   core.TrackingSample{Position: core.Position{X: 10.5, Y: 20}, Movement: core.MovementVector{DX: 3, DY: -4}},
		},
		{
			name:   "lost flag",
			fields: []string{"1", "2", "0", "0", "true"},
			want:   core.TrackingSample{Position: core.Position{X: 1, Y: 2}, Lost: true},
		},
		{name: "too few", fields: []string{"1", "2", "3"}, wantErr: true},
		{name: "not a number", fields: []string{"x", "2", "3", "4"}, wantErr: true},
		{name: "bad flag", fields: []string{"1", "2", "3", "4", "maybe"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSample(tt.fields)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedSample)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplay_Run(t *testing.T) {
	track := raster.NewGrid(10, 10, 255)
	input := "x,y,dx,dy,lost\n# comment\n100,100,5,0\n105,100,5,0,false\n0,0,0,0,true\n"

	frames := channel.NewBounded[raster.Raster](20)
	positions := channel.NewBounded[core.TrackingSample](20)

	r := &Replay{Track: track, Reader: strings.NewReader(input), Interval: time.Millisecond}
	require.NoError(t, r.Run(context.Background(), frames, positions))

	samples := positions.Drain()
	require.Len(t, samples, 3)
	assert.Equal(t, core.Position{X: 105, Y: 100}, samples[1].Position)
	assert.True(t, samples[2].Lost)
	assert.Equal(t, 3, frames.Len())
}

func TestReplay_MalformedRow(t *testing.T) {
	frames := channel.NewBounded[raster.Raster](20)
	positions := channel.NewBounded[core.TrackingSample](20)

	r := &Replay{Reader: strings.NewReader("1,2,3,4\nbad,row\n"), Interval: time.Millisecond}
	err := r.Run(context.Background(), frames, positions)
	assert.ErrorIs(t, err, ErrMalformedSample)
	assert.Equal(t, 1, positions.Len())
}

func TestReplay_StopsOnCancel(t *testing.T) {
	frames := channel.NewBounded[raster.Raster](20)
	positions := channel.NewBounded[core.TrackingSample](20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Replay{Reader: strings.NewReader("1,2,3,4\n5,6,7,8\n"), Interval: time.Hour}
	require.NoError(t, r.Run(ctx, frames, positions))
	assert.Equal(t, 0, positions.Len())
}

func TestSimulator_Run(t *testing.T) {
	track := raster.NewGrid(600, 600, 255)
	track.Border(10, 0)

	frames := channel.NewBounded[raster.Raster](100)
	positions := channel.NewBounded[core.TrackingSample](100)

	sim := &Simulator{
		Track:    track,
		Start:    core.Position{X: 300, Y: 300},
		Interval: time.Millisecond,
		Config:   navigation.DefaultConfig(),
		Rand:     rand.New(rand.NewPCG(5, 6)),
		MaxTicks: 50,
	}
	require.NoError(t, sim.Run(context.Background(), frames, positions))

	samples := positions.Drain()
	require.Len(t, samples, 50)
	assert.Equal(t, 50, frames.Len())

	first := samples[0]
	assert.InDelta(t, 310, first.Position.X, 1e-9)
	assert.Equal(t, core.MovementVector{DX: 10, DY: 0}, first.Movement)
	for _, s := range samples {
		assert.False(t, s.Movement.IsZero())
	}
}

func TestSimulator_StopsOnCancel(t *testing.T) {
	frames := channel.NewBounded[raster.Raster](10)
	positions := channel.NewBounded[core.TrackingSample](10)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sim := &Simulator{Track: raster.NewGrid(100, 100, 255), Config: navigation.DefaultConfig(), Interval: time.Millisecond}
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx, frames, positions) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop")
	}
}
