package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestSanitize_RedactsSecrets(t *testing.T) {
	log, logs := observed()

	log.Info("reissued", "access_token", "abc.def.ghi", "Cookie", "sid=1", "status", 200)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["access_token"])
	assert.Equal(t, "[REDACTED]", fields["Cookie"])
	assert.EqualValues(t, 200, fields["status"])
}

func TestSanitize_ShortensImagePayloads(t *testing.T) {
	log, logs := observed()

	log.Debug("encoded", "base64", "QUJDRA==", "preview", "data:image/png;base64,QUJD")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[8 bytes]", fields["base64"])
	assert.Equal(t, "[data uri, 26 bytes]", fields["preview"])
}

func TestWith_SanitizesBoundFields(t *testing.T) {
	log, logs := observed()

	log.With("refresh_token", "x", "flow_id", "01ABC").Warn("stale")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["refresh_token"])
	assert.Equal(t, "01ABC", fields["flow_id"])
}

func TestSanitize_OddKeyValues(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	assert.Equal(t, []interface{}{"a", 1, "dangling"}, out)
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
	assert.NotNil(t, NewNop().SugaredLogger)
}
