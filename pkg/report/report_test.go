package report

import (
	stderrors "errors"
	"testing"

	"igsource/pkg/errors"
	"igsource/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicReturnsFatalError(t *testing.T) {
	log := logger.NewTestLogger()
	r := NewLogReporter(log)

	cause := errors.NewIntegrationError("Instagram", errors.StageFetch, stderrors.New("Invalid OAuth access token"))
	err := r.Panic("failed to fetch media", cause)

	var fatal *FatalError
	require.True(t, stderrors.As(err, &fatal))
	assert.Equal(t, "failed to fetch media: Instagram: Invalid OAuth access token", err.Error())
	assert.True(t, errors.IsIntegrationError(err, errors.StageFetch))

	msgs := log.GetMessagesByLevel("ERROR")
	require.Len(t, msgs, 1)
	assert.Equal(t, "failed to fetch media", msgs[0].Message)
	assert.Equal(t, "Instagram: Invalid OAuth access token", msgs[0].Fields["source_message"])
	assert.Equal(t, "fatal", msgs[0].Fields["severity"])
	assert.Equal(t, 1, r.Count(SeverityFatal))
}

func TestErrorIsRecorded(t *testing.T) {
	log := logger.NewTestLogger()
	r := NewLogReporter(log)

	r.Error("download failed", stderrors.New("plain"))
	r.Warn("careful")
	r.Info("done")

	diags := r.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, SeverityWarn, diags[1].Severity)
	assert.Equal(t, SeverityInfo, diags[2].Severity)
	assert.True(t, log.HasError())

	msgs := log.GetMessagesByLevel("ERROR")
	require.Len(t, msgs, 1)
	_, hasSource := msgs[0].Fields["source_message"]
	assert.False(t, hasSource)
}

func TestFatalErrorMessage(t *testing.T) {
	assert.Equal(t, "halt", (&FatalError{Message: "halt"}).Error())
	assert.Equal(t, "boom", (&FatalError{Err: stderrors.New("boom")}).Error())
}
