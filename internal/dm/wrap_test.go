package dm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/keyer"
	"github.com/nbd-wtf/go-nostr/nip59"
)

// Test keypairs (generated with nak).
const terminalSecretHex = "234702910939c3394838131938e8da0dcfec369df3e51990263eae626aa73f87"
const terminalPubkeyHex = "1eca03bebec0590b918861b4431d57ff574702fa8cb015ccd566b509e9480c42"
const recipientSecretHex = "d067b66a004de257ff3f467e754d22bb2b64a9a59c669e8224d8c624b7decb4f"
const recipientPubkeyHex = "dcfafaaebf643e0c8517e49e13ad25c60ee4a57a0b5f5fc401adbcb9d151f5f5"

func TestWrapResponse(t *testing.T) {
	ctx := context.Background()

	// Create terminal keyer
	kr, err := keyer.NewPlainKeySigner(terminalSecretHex)
	if err != nil {
		t.Fatalf("creating keyer: %v", err)
	}

	message := "Hello, this is a test response!"

	// Wrap the response
	wrapped, err := WrapResponse(ctx, kr, terminalPubkeyHex, recipientPubkeyHex, message)
	if err != nil {
		t.Fatalf("WrapResponse() error = %v", err)
	}

	// Verify it's a gift wrap (kind 1059)
	if wrapped.Kind != nostr.KindGiftWrap {
		t.Errorf("wrapped.Kind = %d, want %d (KindGiftWrap)", wrapped.Kind, nostr.KindGiftWrap)
	}

	// Verify it has a p tag for the recipient
	pTag := wrapped.Tags.Find("p")
	if len(pTag) < 2 {
		t.Error("wrapped event missing p tag")
	} else if pTag[1] != recipientPubkeyHex {
		t.Errorf("p tag = %s, want %s", pTag[1], recipientPubkeyHex)
	}

	// Verify signature is valid
	ok, err := wrapped.CheckSignature()
	if err != nil || !ok {
		t.Errorf("wrapped event has invalid signature: %v", err)
	}
}

func TestWrapResponse_CanBeUnwrapped(t *testing.T) {
	ctx := context.Background()

	// Create terminal keyer
	terminalKr, err := keyer.NewPlainKeySigner(terminalSecretHex)
	if err != nil {
		t.Fatalf("creating terminal keyer: %v", err)
	}

	// Create recipient keyer
	recipientKr, err := keyer.NewPlainKeySigner(recipientSecretHex)
	if err != nil {
		t.Fatalf("creating recipient keyer: %v", err)
	}

	message := "This message should be decryptable by the recipient"

	// Wrap the response
	wrapped, err := WrapResponse(ctx, terminalKr, terminalPubkeyHex, recipientPubkeyHex, message)
	if err != nil {
		t.Fatalf("WrapResponse() error = %v", err)
	}

	// Recipient unwraps the gift
	rumor, err := nip59.GiftUnwrap(*wrapped, func(pubkey, ciphertext string) (string, error) {
		return recipientKr.Decrypt(ctx, ciphertext, pubkey)
	})
	if err != nil {
		t.Fatalf("GiftUnwrap() error = %v", err)
	}

	// Verify the unwrapped message
	if rumor.Kind != nostr.KindDirectMessage {
		t.Errorf("rumor.Kind = %d, want %d (KindDirectMessage)", rumor.Kind, nostr.KindDirectMessage)
	}

	if rumor.Content != message {
		t.Errorf("rumor.Content = %s, want %s", rumor.Content, message)
	}

	// Verify sender is the terminal
	if rumor.PubKey != terminalPubkeyHex {
		t.Errorf("rumor.PubKey = %s, want %s", rumor.PubKey, terminalPubkeyHex)
	}

	// Verify p tag points to recipient
	pTag := rumor.Tags.Find("p")
	if len(pTag) < 2 {
		t.Error("rumor missing p tag")
	} else if pTag[1] != recipientPubkeyHex {
		t.Errorf("p tag = %s, want %s", pTag[1], recipientPubkeyHex)
	}
}

func TestWrapResponse_DifferentMessages(t *testing.T) {
	ctx := context.Background()

	terminalKr, err := keyer.NewPlainKeySigner(terminalSecretHex)
	if err != nil {
		t.Fatalf("creating keyer: %v", err)
	}

	messages := []string{
		"Short",
		"A longer message with some content",
		"Message with special chars: !@#$%^&*()",
		"Multi\nline\nmessage",
		"Unicode: 日本語 🎉 émoji",
	}

	recipientKr, err := keyer.NewPlainKeySigner(recipientSecretHex)
	if err != nil {
		t.Fatalf("creating recipient keyer: %v", err)
	}

	for _, msg := range messages {
		t.Run(msg[:min(len(msg), 20)], func(t *testing.T) {
			wrapped, err := WrapResponse(ctx, terminalKr, terminalPubkeyHex, recipientPubkeyHex, msg)
			if err != nil {
				t.Fatalf("WrapResponse() error = %v", err)
			}

			rumor, err := nip59.GiftUnwrap(*wrapped, func(pubkey, ciphertext string) (string, error) {
				return recipientKr.Decrypt(ctx, ciphertext, pubkey)
			})
			if err != nil {
				t.Fatalf("GiftUnwrap() error = %v", err)
			}

			if rumor.Content != msg {
				t.Errorf("content = %q, want %q", rumor.Content, msg)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	ctx := context.Background()

	customerKr, err := keyer.NewPlainKeySigner(recipientSecretHex)
	if err != nil {
		t.Fatalf("creating customer keyer: %v", err)
	}
	terminalKr, err := keyer.NewPlainKeySigner(terminalSecretHex)
	if err != nil {
		t.Fatalf("creating terminal keyer: %v", err)
	}

	// The customer writes to the terminal.
	wrapped, err := WrapResponse(ctx, customerKr, recipientPubkeyHex, terminalPubkeyHex, "  order cola \n")
	if err != nil {
		t.Fatalf("WrapResponse() error = %v", err)
	}

	msg, err := Unwrap(ctx, terminalKr, wrapped)
	if err != nil {
		t.Fatalf("Unwrap() error = %v", err)
	}

	if msg.Content != "order cola" {
		t.Errorf("Content = %q, want %q", msg.Content, "order cola")
	}
	if msg.SenderPubkeyHex != recipientPubkeyHex {
		t.Errorf("SenderPubkeyHex = %s, want %s", msg.SenderPubkeyHex, recipientPubkeyHex)
	}
	if !strings.HasPrefix(msg.SenderNpub, "npub1") {
		t.Errorf("SenderNpub = %s, want npub1 prefix", msg.SenderNpub)
	}
	if msg.CreatedAt == 0 {
		t.Error("CreatedAt not set")
	}
}

func TestUnwrap_WrongRecipient(t *testing.T) {
	ctx := context.Background()

	terminalKr, err := keyer.NewPlainKeySigner(terminalSecretHex)
	if err != nil {
		t.Fatalf("creating terminal keyer: %v", err)
	}

	// Addressed to someone else; the terminal cannot decrypt it.
	wrapped, err := WrapResponse(ctx, terminalKr, terminalPubkeyHex, recipientPubkeyHex, "order cola")
	if err != nil {
		t.Fatalf("WrapResponse() error = %v", err)
	}

	if _, err := Unwrap(ctx, terminalKr, wrapped); err == nil {
		t.Error("Unwrap() error = nil, want decryption failure")
	}
}

func TestUnwrap_NotGiftWrap(t *testing.T) {
	terminalKr, err := keyer.NewPlainKeySigner(terminalSecretHex)
	if err != nil {
		t.Fatalf("creating terminal keyer: %v", err)
	}

	tests := []struct {
		name  string
		event *nostr.Event
	}{
		{name: "nil", event: nil},
		{name: "text note", event: &nostr.Event{Kind: nostr.KindTextNote, Content: "order cola"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unwrap(context.Background(), terminalKr, tt.event)
			if !errors.Is(err, ErrNotGiftWrap) {
				t.Errorf("Unwrap() error = %v, want ErrNotGiftWrap", err)
			}
		})
	}
}
