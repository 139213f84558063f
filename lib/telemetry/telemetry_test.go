package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// a CLI run without a telemetry.json5 still shuts down through the
// zero-value handle
func TestShutdownZeroValue(t *testing.T) {
	var tel Telemetry
	require.NoError(t, tel.Shutdown(context.Background()))
}
