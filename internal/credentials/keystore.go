package credentials

import (
	"context"
	"encoding/base64"
	"fmt"
)

// KeyOption is the options-table row holding the per-site key.
const KeyOption = "form_shield_encryption_key"

// OptionStore is the subset of the settings repository the key store needs.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
}

// KeyStore keeps the per-site encryption key next to the data it protects.
type KeyStore struct {
	store    OptionStore
	generate func() ([]byte, error)
}

func NewKeyStore(store OptionStore) *KeyStore {
	return &KeyStore{store: store, generate: GenerateKey}
}

// LoadOrCreate returns the stored key, generating and saving one on first use.
func (k *KeyStore) LoadOrCreate(ctx context.Context) ([]byte, error) {
	raw, ok, err := k.store.GetOption(ctx, KeyOption)
	if err != nil {
		return nil, fmt.Errorf("credentials: load key: %w", err)
	}
	if ok {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("credentials: decode key: %w", err)
		}
		if len(key) != keySize {
			return nil, ErrInvalidKeySize
		}
		return key, nil
	}

	key, err := k.generate()
	if err != nil {
		return nil, err
	}
	if err := k.store.SetOption(ctx, KeyOption, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("credentials: save key: %w", err)
	}
	return key, nil
}

// Open is LoadOrCreate followed by NewCipher.
func (k *KeyStore) Open(ctx context.Context) (*Cipher, error) {
	key, err := k.LoadOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return NewCipher(key)
}
