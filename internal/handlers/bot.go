package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/services"
	"github.com/rs/zerolog"
	waTypes "go.mau.fi/whatsmeow/types"
	waEvents "go.mau.fi/whatsmeow/types/events"
)

const (
	replyNoCode = "Tidak ada kode OTP aktif untuk nomor ini. Silakan minta kode baru dari aplikasi."
	replyHelp   = "Kirim *OTP* untuk menerima ulang kode verifikasi Anda."
	replyFailed = "Maaf, kode belum bisa dikirim. Silakan coba lagi sebentar lagi."
)

var redeliverKeywords = map[string]struct{}{
	"otp":  {},
	"kode": {},
	"code": {},
}

// LIDResolver maps a hidden-user (LID) sender to its phone number JID.
type LIDResolver interface {
	PhoneForLID(ctx context.Context, lid waTypes.JID) (waTypes.JID, error)
}

// BotHandler answers inbound WhatsApp chats. Users can ask for their live
// code again, which gives a second delivery path when a send was lost.
type BotHandler struct {
	auth     domain.AuthService
	dispatch domain.DispatchService
	lids     LIDResolver
	timeout  time.Duration
	log      zerolog.Logger
}

func NewBotHandler(auth domain.AuthService, dispatch domain.DispatchService, log zerolog.Logger) *BotHandler {
	return &BotHandler{
		auth:     auth,
		dispatch: dispatch,
		timeout:  30 * time.Second,
		log:      log.With().Str("component", "bot").Logger(),
	}
}

// WithLIDResolver lets the bot answer chats addressed by LID.
func (h *BotHandler) WithLIDResolver(r LIDResolver) *BotHandler {
	h.lids = r
	return h
}

func (h *BotHandler) HandleMessage(evt interface{}) {
	switch e := evt.(type) {
	case *waEvents.Message:
		if e.Message.GetConversation() == "" && e.Message.ExtendedTextMessage == nil {
			return
		}

		// Abaikan pesan dari diri sendiri atau dari grup
		if e.Info.IsFromMe || e.Info.IsGroup {
			return
		}

		text := strings.TrimSpace(services.ExtractText(e))
		if text == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		phone := h.senderPhone(ctx, e.Info.MessageSource)
		if phone == "" {
			h.log.Warn().Str("sender", e.Info.Sender.String()).Msg("cannot map sender to a phone number")
			return
		}
		h.handleText(ctx, phone, text)
	}
}

// senderPhone returns the phone number user part of the sender, resolving
// LID-addressed chats through SenderAlt or the device store.
func (h *BotHandler) senderPhone(ctx context.Context, src waTypes.MessageSource) string {
	sender := src.Sender
	if sender.Server != waTypes.HiddenUserServer {
		return sender.User
	}
	if src.SenderAlt.Server == waTypes.DefaultUserServer {
		return src.SenderAlt.User
	}
	if h.lids == nil {
		return ""
	}
	pn, err := h.lids.PhoneForLID(ctx, sender.ToNonAD())
	if err != nil || pn.IsEmpty() {
		h.log.Debug().Err(err).Str("lid", sender.String()).Msg("no phone number known for lid")
		return ""
	}
	return pn.User
}

func (h *BotHandler) handleText(ctx context.Context, phone, text string) {
	h.log.Debug().Str("from", phone).Msg("inbound message")

	if _, ok := redeliverKeywords[strings.ToLower(text)]; !ok {
		h.sendReply(ctx, phone, replyHelp)
		return
	}

	sent, err := h.auth.Redeliver(ctx, phone)
	switch {
	case err != nil:
		h.log.Error().Err(err).Str("from", phone).Msg("redeliver failed")
		h.sendReply(ctx, phone, replyFailed)
	case !sent:
		h.sendReply(ctx, phone, replyNoCode)
	}
}

func (h *BotHandler) sendReply(ctx context.Context, phone, message string) {
	if res := h.dispatch.Send(ctx, phone, message, domain.Mode{}); !res.OK {
		h.log.Warn().Str("to", phone).Str("raw", res.Raw).Msg("failed to send reply")
	}
}
