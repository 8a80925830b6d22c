package service

import (
	"context"

	"voteon/pkg/logger"

	"go.uber.org/zap"
)

// LogNotifier writes OTP deliveries to the log instead of a mail provider.
// Used in development and as the default until a mail integration is
// configured.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) SendOTP(_ context.Context, email, code string) error {
	n.logger.Info("otp issued",
		zap.String("email", email),
		zap.String("code", code))
	return nil
}
