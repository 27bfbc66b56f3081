package services

import (
	"errors"
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	waEvents "go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func TestExtractText(t *testing.T) {
	cases := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"conversation", &waE2E.Message{Conversation: proto.String("OTP")}, "OTP"},
		{"extended", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("kode")}}, "kode"},
		{"empty", &waE2E.Message{}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractText(&waEvents.Message{Message: c.msg})
			if got != c.want {
				t.Fatalf("ExtractText=%q; want %q", got, c.want)
			}
		})
	}
}

func TestIsEncryptionError(t *testing.T) {
	if !isEncryptionError(errors.New("failed to send: can't encrypt message for device")) {
		t.Fatal("expected encryption error to be detected")
	}
	if !isEncryptionError(errors.New("no signal session established with 628123")) {
		t.Fatal("expected missing session to be detected")
	}
	if isEncryptionError(errors.New("websocket not connected")) {
		t.Fatal("unexpected encryption error match")
	}
}
