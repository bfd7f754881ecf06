package mailer

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, to, subject, text, html string) error {
	return m.Called(to, subject).Error(0)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestAlertDispatcher_MailsSelectedKinds(t *testing.T) {
	s := &mockSender{}
	s.On("Send", "ops@example.com", "[idsvc] INTEGRITY event for user u-1").Return(nil).Once()
	d := NewAlertDispatcher(s, "ops@example.com", "idsvc", quietLogger(), "integrity", "provisioning_conflict")

	require.NoError(t, d.Handle(context.Background(), []byte(`{"kind":"integrity","user_id":"u-1","message":"bad hash","at":"2024-05-01T10:30:00Z"}`)))
	require.NoError(t, d.Handle(context.Background(), []byte(`{"kind":"profile_decode","user_id":"u-2","message":"bad profile"}`)))
	s.AssertExpectations(t)
}

func TestAlertDispatcher_BadMessage(t *testing.T) {
	d := NewAlertDispatcher(nil, "ops@example.com", "idsvc", quietLogger(), "integrity")
	for _, body := range []string{`not json`, `{}`} {
		err := d.Handle(context.Background(), []byte(body))
		assert.ErrorIs(t, err, ErrBadEvent, body)
	}
}

func TestAlertDispatcher_SendFailureIsRetryable(t *testing.T) {
	s := &mockSender{}
	s.On("Send", mock.Anything, mock.Anything).Return(errors.New("mailgun down"))
	d := NewAlertDispatcher(s, "ops@example.com", "idsvc", quietLogger(), "provisioning_conflict")

	err := d.Handle(context.Background(), []byte(`{"kind":"provisioning_conflict","message":"gave up"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadEvent)
}

func TestAlertDispatcher_NoRecipient(t *testing.T) {
	s := &mockSender{}
	d := NewAlertDispatcher(s, "", "idsvc", quietLogger(), "integrity")
	require.NoError(t, d.Handle(context.Background(), []byte(`{"kind":"integrity","message":"bad hash"}`)))
	s.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
