package services

import (
	"context"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/rs/zerolog"
)

// DispatchAdapter wraps the message gateway with pass/fail semantics. It
// never returns an error: a failed delivery is reported in the result and
// logged.
type DispatchAdapter struct {
	gateway domain.WhatsAppService
	timeout time.Duration
	log     zerolog.Logger
}

// NewDispatchAdapter accepts a nil gateway, in which case every live
// delivery is a soft failure.
func NewDispatchAdapter(gateway domain.WhatsAppService, timeout time.Duration, log zerolog.Logger) *DispatchAdapter {
	return &DispatchAdapter{
		gateway: gateway,
		timeout: timeout,
		log:     log.With().Str("component", "dispatch").Logger(),
	}
}

func (d *DispatchAdapter) Send(ctx context.Context, phone, body string, mode domain.Mode) domain.DispatchResult {
	if mode.Test || mode.Demo {
		return domain.DispatchResult{OK: true, Skipped: true, Raw: "skipped: test mode"}
	}
	if d.gateway == nil {
		d.log.Warn().Str("phone", phone).Msg("no gateway configured")
		return domain.DispatchResult{Raw: "gateway not configured"}
	}
	if !d.gateway.IsConnected() {
		d.log.Warn().Str("phone", phone).Msg("gateway not connected")
		return domain.DispatchResult{Raw: "gateway not connected"}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	id, err := d.gateway.SendMessage(ctx, phone, body)
	if err != nil {
		d.log.Warn().Err(err).Str("phone", phone).Msg("delivery failed")
		return domain.DispatchResult{Raw: err.Error()}
	}
	return domain.DispatchResult{OK: true, Raw: id}
}

func (d *DispatchAdapter) Connected() bool {
	return d.gateway != nil && d.gateway.IsConnected()
}

var _ domain.DispatchService = (*DispatchAdapter)(nil)
