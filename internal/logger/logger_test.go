package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupWriter(&buf, false)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger.Debug().Msg("hidden")
	logger.Info().Str("network", "app-network").Msg("created")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"network":"app-network"`)
	require.Contains(t, buf.String(), `"message":"created"`)
}

func TestSetupWriter_Dev(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupWriter(&buf, true)
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Debug().Msg("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestCLI(t *testing.T) {
	var buf bytes.Buffer

	quiet := CLI(&buf, false)
	quiet.Info().Msg("quiet")
	require.Empty(t, buf.String())

	loud := CLI(&buf, true)
	loud.Debug().Msg("loud")
	require.Contains(t, buf.String(), "loud")
}
