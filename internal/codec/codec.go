// Пакет codec — аутентифицированное шифрование анкет AES-256-GCM.
//
// Формат блоба: nonce(12) || tag(16) || ciphertext(N).
// Открытый текст — JSON-представление значения.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeySize — длина ключа AES-256.
	KeySize = 32
	// NonceSize — длина nonce GCM.
	NonceSize = 12
	// TagSize — длина тега аутентификации GCM.
	TagSize = 16
	// MinBlobSize — минимальная длина блоба (nonce + tag).
	MinBlobSize = NonceSize + TagSize
)

// Ошибки шифрования.
var (
	// ErrInvalidKey — ключ не 32 байта.
	ErrInvalidKey = errors.New("ключ шифрования должен быть 32 байта (AES-256)")
	// ErrTruncatedInput — блоб короче nonce + tag.
	ErrTruncatedInput = errors.New("зашифрованные данные слишком короткие")
	// ErrAuthenticationFailure — тег не прошёл проверку (подмена данных или чужой ключ).
	ErrAuthenticationFailure = errors.New("ошибка аутентификации зашифрованных данных")
)

// DecodeKey декодирует base64-ключ и проверяет длину.
// Принимает стандартный base64 с padding и без него.
func DecodeKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		key, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: некорректный base64", ErrInvalidKey)
		}
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// Seal шифрует plaintext и возвращает блоб nonce || tag || ciphertext.
// На каждый вызов генерируется новый nonce.
func Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// GCM возвращает ciphertext || tag, тег переносим сразу за nonce.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ctLen := len(sealed) - TagSize

	blob := make([]byte, 0, NonceSize+len(sealed))
	blob = append(blob, nonce...)
	blob = append(blob, sealed[ctLen:]...)
	blob = append(blob, sealed[:ctLen]...)
	return blob, nil
}

// Open проверяет и расшифровывает блоб. Частичный открытый текст
// никогда не возвращается.
func Open(blob, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < MinBlobSize {
		return nil, ErrTruncatedInput
	}

	nonce := blob[:NonceSize]
	tag := blob[NonceSize:MinBlobSize]
	ciphertext := blob[MinBlobSize:]

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}
	return plaintext, nil
}

// Encrypt сериализует v в JSON и шифрует.
func Encrypt(v any, key []byte) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации: %w", err)
	}
	return Seal(plaintext, key)
}

// Decrypt расшифровывает блоб и разбирает JSON в out.
func Decrypt(blob, key []byte, out any) error {
	plaintext, err := Open(blob, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("ошибка десериализации: %w", err)
	}
	return nil
}

// Codec — шифратор с ключом, зафиксированным при создании.
type Codec struct {
	key []byte
}

// New создаёт Codec. Ключ копируется.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Codec{key: k}, nil
}

// Encrypt шифрует значение ключом Codec.
func (c *Codec) Encrypt(v any) ([]byte, error) {
	return Encrypt(v, c.key)
}

// Decrypt расшифровывает блоб ключом Codec.
func (c *Codec) Decrypt(blob []byte, out any) error {
	return Decrypt(blob, c.key, out)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}
	return aead, nil
}
