package gateway

import (
	"fmt"

	"hotelbook/internal/config"
	"hotelbook/internal/domain"

	"github.com/rs/zerolog"
)

// New picks the gateway for the configured payment mode.
func New(cfg config.PaymentConfig, logger *zerolog.Logger) (domain.PaymentGateway, error) {
	switch cfg.Mode {
	case config.PaymentModeSimulated, "":
		logger.Warn().Msg("Payments are simulated, no card is charged")
		return NewSimulatedGateway(), nil
	case config.PaymentModeHTTP:
		return NewHTTPGateway(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown payment mode %q", cfg.Mode)
	}
}
