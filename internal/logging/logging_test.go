package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"greengarden/internal/logging"
)

type credentials struct {
	User        string
	AccessToken string
}

func TestNew_JSONRedactsToken(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(&buf, "json", true)
	gt.NoError(t, err).Required()

	l.Debug("login", "cred", credentials{User: "ann", AccessToken: "s3cr3t"})
	gt.String(t, buf.String()).Contains("ann")
	gt.Bool(t, bytes.Contains(buf.Bytes(), []byte("s3cr3t"))).False()
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(&buf, "json", false)
	gt.NoError(t, err).Required()

	l.Debug("hidden")
	gt.Value(t, buf.Len()).Equal(0)
	l.Warn("shown")
	gt.String(t, buf.String()).Contains("shown")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "xml", false)
	gt.Error(t, err)
}

func TestFrom_FallsBackToDefault(t *testing.T) {
	gt.Value(t, logging.From(context.Background())).Equal(logging.Default())

	var buf bytes.Buffer
	l, err := logging.New(&buf, "console", true)
	gt.NoError(t, err).Required()
	ctx := logging.With(context.Background(), l)
	gt.Value(t, logging.From(ctx)).Equal(l)
}
