package dm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/nbd-wtf/go-nostr/nip59"
)

var (
	// ErrNotGiftWrap indicates an event that is not kind:1059.
	ErrNotGiftWrap = errors.New("event is not a gift wrap")
	// ErrNotDirectMessage indicates a gift wrap whose rumor is not a kind:14 DM.
	ErrNotDirectMessage = errors.New("rumor is not a direct message")
)

// Message is an unwrapped direct message.
type Message struct {
	SenderPubkeyHex string
	SenderNpub      string
	Content         string
	CreatedAt       nostr.Timestamp
}

// WrapResponse creates a NIP-17 gift-wrapped DM from the terminal.
// recipientPubkeyHex is the hex pubkey of the recipient.
// Returns a ready-to-publish kind:1059 gift-wrapped event.
func WrapResponse(ctx context.Context, kr nostr.Keyer, terminalPubkeyHex string, recipientPubkeyHex string, message string) (*nostr.Event, error) {
	rumor := nostr.Event{
		PubKey:    terminalPubkeyHex,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindDirectMessage, // kind:14
		Tags: nostr.Tags{
			nostr.Tag{"p", recipientPubkeyHex},
		},
		Content: message,
	}

	// rumor -> seal (kind:13) -> gift wrap (kind:1059)
	giftWrap, err := nip59.GiftWrap(
		rumor,
		recipientPubkeyHex,
		func(plaintext string) (string, error) {
			return kr.Encrypt(ctx, plaintext, recipientPubkeyHex)
		},
		func(event *nostr.Event) error {
			return kr.SignEvent(ctx, event)
		},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("gift wrapping response: %w", err)
	}

	return &giftWrap, nil
}

// Unwrap opens a gift-wrapped DM addressed to the holder of kr.
func Unwrap(ctx context.Context, kr nostr.Keyer, event *nostr.Event) (*Message, error) {
	if event == nil || event.Kind != nostr.KindGiftWrap {
		return nil, ErrNotGiftWrap
	}

	rumor, err := nip59.GiftUnwrap(*event, func(pubkey, ciphertext string) (string, error) {
		return kr.Decrypt(ctx, ciphertext, pubkey)
	})
	if err != nil {
		return nil, fmt.Errorf("unwrapping %s: %w", event.ID, err)
	}
	if rumor.Kind != nostr.KindDirectMessage {
		return nil, fmt.Errorf("%w: kind %d", ErrNotDirectMessage, rumor.Kind)
	}

	npub, err := nip19.EncodePublicKey(rumor.PubKey)
	if err != nil {
		return nil, fmt.Errorf("encoding sender pubkey: %w", err)
	}

	return &Message{
		SenderPubkeyHex: rumor.PubKey,
		SenderNpub:      npub,
		Content:         strings.TrimSpace(rumor.Content),
		CreatedAt:       rumor.CreatedAt,
	}, nil
}
