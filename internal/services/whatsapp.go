package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	waEvents "go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite" // SQLite driver for whatsmeow store
)

const sendMaxRetries = 3

type WhatsAppService struct {
	client      *whatsmeow.Client
	log         zerolog.Logger
	revokeAfter time.Duration
}

// NewWhatsAppService connects the device stored at storePath, pairing by QR
// code on first start. Sent messages are revoked after revokeAfter; zero
// keeps them.
func NewWhatsAppService(ctx context.Context, storePath string, revokeAfter time.Duration, log zerolog.Logger) (*WhatsAppService, error) {
	log = log.With().Str("component", "whatsapp").Logger()
	log.Info().Str("store_path", storePath).Msg("initializing WhatsApp service")

	container, err := sqlstore.New(ctx, "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=foreign_keys=on", storePath), waLog.Zerolog(log.With().Str("module", "sqlstore").Logger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlstore: %w", err)
	}

	// Get the first device from the store, or create a new one if none exists
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("no existing device found, creating new device")
		deviceStore = container.NewDevice()
	}

	client := whatsmeow.NewClient(deviceStore, waLog.Zerolog(log.With().Str("module", "client").Logger()))
	service := &WhatsAppService{client: client, log: log, revokeAfter: revokeAfter}

	client.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *waEvents.Connected:
			log.Info().Msg("WhatsApp client connected")
		case *waEvents.Disconnected:
			log.Warn().Interface("event", v).Msg("WhatsApp client disconnected")
		case *waEvents.LoggedOut:
			log.Warn().Msg("WhatsApp client logged out")
		}
	})

	if client.Store.ID == nil {
		log.Info().Msg("no session found, starting QR code pairing")
		qr, _ := client.GetQRChannel(ctx)
		if err = client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		for evt := range qr {
			if evt.Event == "code" {
				log.Info().Msg("scan the QR code in WhatsApp to pair")
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			} else {
				log.Info().Str("event", evt.Event).Msg("QR event")
			}
		}
		return service, nil
	}

	log.Info().Str("device", client.Store.ID.String()).Msg("existing session found")
	if err = client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect with existing session: %w", err)
	}
	return service, nil
}

// SendMessage delivers a text message and returns the WhatsApp message ID.
func (w *WhatsAppService) SendMessage(ctx context.Context, phone, message string) (string, error) {
	if !w.client.IsConnected() {
		return "", fmt.Errorf("WhatsApp client is not connected")
	}

	to := waTypes.NewJID(phone, waTypes.DefaultUserServer)
	msg := &waProto.Message{Conversation: proto.String(message)}

	var resp whatsmeow.SendResponse
	var err error
	for i := 0; i < sendMaxRetries; i++ {
		resp, err = w.client.SendMessage(ctx, to, msg)
		if err == nil || !isEncryptionError(err) {
			break
		}
		w.log.Warn().Err(err).Int("attempt", i+1).Str("phone", phone).Msg("encryption error")
		if i < sendMaxRetries-1 {
			select {
			case <-time.After(time.Duration(i+1) * 2 * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to send message after %d attempts: %w", sendMaxRetries, err)
	}

	w.log.Info().Str("message_id", resp.ID).Str("phone", phone).Msg("message sent")

	if w.revokeAfter > 0 {
		go w.revokeLater(resp.ID, to)
	}
	return resp.ID, nil
}

// revokeLater unsends a message once its content is stale. It runs on a
// background context because the request that sent it is long gone.
func (w *WhatsAppService) revokeLater(messageID string, jid waTypes.JID) {
	time.Sleep(w.revokeAfter)
	if w.client.Store.ID == nil {
		return
	}
	revoke := w.client.BuildRevoke(jid, w.client.Store.ID.ToNonAD(), messageID)
	if _, err := w.client.SendMessage(context.Background(), jid, revoke); err != nil {
		w.log.Warn().Err(err).Str("message_id", messageID).Msg("failed to revoke message")
		return
	}
	w.log.Debug().Str("message_id", messageID).Msg("message revoked")
}

func (w *WhatsAppService) IsConnected() bool {
	return w.client.IsConnected()
}

// PhoneForLID maps a hidden-user JID to the phone number JID the device
// store has learned for it.
func (w *WhatsAppService) PhoneForLID(ctx context.Context, lid waTypes.JID) (waTypes.JID, error) {
	return w.client.Store.LIDs.GetPNForLID(ctx, lid)
}

func (w *WhatsAppService) AddEventHandler(handler func(interface{})) {
	w.client.AddEventHandler(handler)
}

func (w *WhatsAppService) Disconnect() {
	w.client.Disconnect()
}

func isEncryptionError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "can't encrypt message") || strings.Contains(s, "no signal session established")
}

func ExtractText(e *waEvents.Message) string {
	if e.Message.GetConversation() != "" {
		return e.Message.GetConversation()
	}
	if e.Message.ExtendedTextMessage != nil {
		return e.Message.ExtendedTextMessage.GetText()
	}
	return ""
}
