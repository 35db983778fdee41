package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"funda-listing-notifier/config"
)

func TestBody_JoinsWithBlankLines(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Body(nil))
	require.Equal(t, "/koop/a", Body([]string{"/koop/a"}))
	require.Equal(t, "/koop/a\n\n/koop/b", Body([]string{"/koop/a", "/koop/b"}))
}

func TestNotify_MissingSMTPConfig(t *testing.T) {
	t.Parallel()

	m := NewSMTPMailer(NewSMTPMailerParams{
		Cfg:    config.Config{},
		Logger: zap.NewNop().Sugar(),
	})

	err := m.Notify(context.Background(), []string{"/koop/a"})
	require.Error(t, err)

	var merr *Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, "config", merr.Op)
}

func TestNotify_InvalidSender(t *testing.T) {
	t.Parallel()

	m := NewSMTPMailer(NewSMTPMailerParams{
		Cfg: config.Config{
			SMTPHost:  "smtp.example.com",
			SMTPPort:  587,
			FromEmail: "not-an-address",
			ToEmail:   "someone@example.com",
		},
		Logger: zap.NewNop().Sugar(),
	})

	err := m.Notify(context.Background(), []string{"/koop/a"})
	require.Error(t, err)

	var merr *Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, "build", merr.Op)
}
