package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	to, subject, pdf string
	err              error
}

func (f *fakeSender) SendTicket(to, subject, _ string, pdfPath string) error {
	f.to, f.subject, f.pdf = to, subject, pdfPath
	return f.err
}

func payload(t *testing.T, p EmailJobPayload) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

func TestEmailWorker_Envia(t *testing.T) {
	s := &fakeSender{}
	w := NewEmailWorker(s)

	err := w.Process(context.Background(), payload(t, EmailJobPayload{
		ToEmail: "cliente@example.com", Subject: "Tu ticket", PDFPath: "/tmp/t.pdf",
	}))
	require.NoError(t, err)
	assert.Equal(t, "cliente@example.com", s.to)
	assert.Equal(t, "/tmp/t.pdf", s.pdf)
}

func TestEmailWorker_ErrorSeReintenta(t *testing.T) {
	w := NewEmailWorker(&fakeSender{err: errors.New("timeout")})
	err := w.Process(context.Background(), payload(t, EmailJobPayload{ToEmail: "a@b.c"}))
	assert.ErrorContains(t, err, "timeout")
}

func TestEmailWorker_SinSenderOSinDestino(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, NewEmailWorker(nil).Process(ctx, payload(t, EmailJobPayload{ToEmail: "a@b.c"})))

	s := &fakeSender{}
	assert.NoError(t, NewEmailWorker(s).Process(ctx, payload(t, EmailJobPayload{})))
	assert.Empty(t, s.to)
	assert.NoError(t, NewEmailWorker(s).Process(ctx, json.RawMessage(`{`)))
}
