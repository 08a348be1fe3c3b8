package checkin

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"eventwizard/internal/marketplace"
	"eventwizard/pkg/logger"
)

var ErrInvalidCode = errors.New("qr code is required")

// Marketplace is the check-in part of the marketplace API
type Marketplace interface {
	CheckInTicket(ctx context.Context, ticketID string) (*marketplace.CheckInResult, error)
	CheckInAllTickets(ctx context.Context, eventID string) (*marketplace.BulkCheckInResult, error)
	VerifyQR(ctx context.Context, code string) (*marketplace.QRVerification, error)
}

type Service interface {
	CheckInTicket(ctx context.Context, ticketID string) (*marketplace.CheckInResult, error)
	CheckInAll(ctx context.Context, eventID string) (*marketplace.BulkCheckInResult, error)
	VerifyQR(ctx context.Context, code string) (*marketplace.QRVerification, error)
}

type service struct {
	market Marketplace
	logger *logger.Logger
}

func NewService(market Marketplace, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{market: market, logger: log}
}

func (s *service) CheckInTicket(ctx context.Context, ticketID string) (*marketplace.CheckInResult, error) {
	return s.market.CheckInTicket(ctx, ticketID)
}

func (s *service) CheckInAll(ctx context.Context, eventID string) (*marketplace.BulkCheckInResult, error) {
	res, err := s.market.CheckInAllTickets(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Bulk check-in completed",
		slog.String("event_id", eventID),
		slog.Int("checked_in", res.CheckedIn),
		slog.Int("already_checked_in", res.AlreadyChecked),
	)
	return res, nil
}

// VerifyQR checks a scanned code. Scanners often append whitespace or newlines.
func (s *service) VerifyQR(ctx context.Context, code string) (*marketplace.QRVerification, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	return s.market.VerifyQR(ctx, code)
}
