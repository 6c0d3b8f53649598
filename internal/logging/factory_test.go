package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer

	l, err := New("text", "debug", &buf)
	require.NoError(t, err)
	l.Debug(context.Background(), "visible")
	assert.Contains(t, buf.String(), "msg=visible")

	buf.Reset()
	l, err = New("json", "warn", &buf)
	require.NoError(t, err)
	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	l, err = New("zap", "info", &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New("xml", "info", &buf)
	require.Error(t, err)
}
