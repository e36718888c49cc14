// Package tracker provides the position sources that feed the pipeline.
// A camera tracker lives outside this module; the sources here drive the
// pipeline from a simulation or a recording.
package tracker

import (
	"context"

	"github.com/driftcars/autopilot/internal/channel"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/pkg/core"
)

// Source publishes frames and tracking samples until ctx is done or the
// source is exhausted. Run must not block on the channels.
type Source interface {
	Run(ctx context.Context, frames channel.Sender[raster.Raster], positions channel.Sender[core.TrackingSample]) error
}
