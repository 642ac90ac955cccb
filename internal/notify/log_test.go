package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zap.InfoLevel)
	n := NewLog(zap.New(core))

	err := n.Notify(context.Background(), "JOB_EXTRACTION_ERROR", "system", "https://acme.com/jobs/1: status 500")
	require.NoError(t, err)

	entries := observed.All()
	require.Len(t, entries, 1)
	require.Equal(t, "pipeline event", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "JOB_EXTRACTION_ERROR", fields["event"])
	require.Equal(t, "system", fields["actor_id"])
}
