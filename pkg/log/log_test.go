package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) zerolog.Logger {
	return zerolog.New(buf).With().Logger()
}

func TestWithFrameAttachesTransactionID(t *testing.T) {
	var buf bytes.Buffer
	logger := WithFrame(newTestLogger(&buf), FrameContext{TransactionID: "tx-1"})
	logger.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "tx-1", line["transaction_id"])
	require.NotContains(t, line, "package_id")
}

func TestWithFrameComposesAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger = WithFrame(logger, FrameContext{TransactionID: "tx-1"})
	logger = WithFrame(logger, FrameContext{PackageID: "pkg-1"})
	logger.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "tx-1", line["transaction_id"])
	require.Equal(t, "pkg-1", line["package_id"])
}

func TestWithFrameIgnoresEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	logger := WithFrame(newTestLogger(&buf), FrameContext{})
	logger.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.NotContains(t, line, "transaction_id")
	require.NotContains(t, line, "package_id")
}

func TestSubstateSamplerDropsLines(t *testing.T) {
	var buf bytes.Buffer
	sampled := SubstateSampler(newTestLogger(&buf), 4)

	for i := 0; i < 20; i++ {
		sampled.Debug().Msg("lock_substate")
	}

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	require.Less(t, lines, 20, "sampler should have dropped some of the 20 lines logged")
	require.Greater(t, lines, 0, "sampler should still let some lines through")
}

func TestSubstateSamplerDisabledBelowTwo(t *testing.T) {
	var buf bytes.Buffer
	unsampled := SubstateSampler(newTestLogger(&buf), 1)

	for i := 0; i < 5; i++ {
		unsampled.Debug().Msg("lock_substate")
	}

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	require.Equal(t, 5, lines, "n<=1 should disable sampling entirely")
}
