// Package qrvalue: derivación y verificación del valor opaco impreso en cada código QR.
//
// Formato: "Q1" + base32(batchID[16] | serial[8] | nonce[8] | mac[10]), sin padding.
// El mac es HMAC-SHA256 truncado con una llave por lote derivada (HKDF) del secreto maestro,
// de modo que un valor forjado se rechaza sin consultar la base de datos.
package qrvalue

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/jhoicas/qrcert-api/internal/domain"
)

const (
	prefix   = "Q1"
	nonceLen = 8
	macLen   = 10
	rawLen   = 16 + 8 + nonceLen + macLen

	minSecretLen = 16
)

var (
	encoding = base32.StdEncoding.WithPadding(base32.NoPadding)
	hkdfInfo = []byte("qrcert/qr-value/v1")
)

// Decoded contenido verificado de un valor QR.
type Decoded struct {
	BatchID string
	Serial  int64
}

// Signer deriva y verifica valores QR a partir del secreto maestro.
type Signer struct {
	master []byte
	rand   io.Reader
}

// NewSigner construye el firmador. El secreto debe tener al menos 16 bytes.
func NewSigner(secret string) (*Signer, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("qrvalue: el secreto debe tener al menos %d caracteres", minSecretLen)
	}
	return &Signer{master: []byte(secret), rand: rand.Reader}, nil
}

// Deriver genera valores para un lote concreto; la llave del lote se deriva una sola vez.
type Deriver struct {
	batch [16]byte
	key   []byte
	rand  io.Reader
}

// ForBatch prepara un Deriver para el lote.
func (s *Signer) ForBatch(batchID string) (*Deriver, error) {
	id, err := uuid.Parse(batchID)
	if err != nil {
		return nil, fmt.Errorf("qrvalue: batch id inválido: %w", err)
	}
	key, err := s.batchKey(id)
	if err != nil {
		return nil, err
	}
	return &Deriver{batch: id, key: key, rand: s.rand}, nil
}

// Value genera el valor del serial con un nonce aleatorio nuevo.
func (d *Deriver) Value(serial int64) (string, error) {
	if serial <= 0 {
		return "", fmt.Errorf("qrvalue: serial inválido %d", serial)
	}
	buf := make([]byte, rawLen)
	copy(buf[:16], d.batch[:])
	binary.BigEndian.PutUint64(buf[16:24], uint64(serial))
	if _, err := io.ReadFull(d.rand, buf[24:24+nonceLen]); err != nil {
		return "", fmt.Errorf("qrvalue: nonce: %w", err)
	}
	copy(buf[24+nonceLen:], mac(d.key, buf[:24+nonceLen]))
	return prefix + encoding.EncodeToString(buf), nil
}

// Parse verifica el valor y devuelve lote y serial. Cualquier valor malformado o con mac
// incorrecto se reporta como domain.ErrNotFound: para el llamador es un código inexistente.
func (s *Signer) Parse(value string) (Decoded, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, prefix) {
		return Decoded{}, fmt.Errorf("%w: código QR desconocido", domain.ErrNotFound)
	}
	buf, err := encoding.DecodeString(strings.ToUpper(value[len(prefix):]))
	if err != nil || len(buf) != rawLen {
		return Decoded{}, fmt.Errorf("%w: código QR desconocido", domain.ErrNotFound)
	}
	var id uuid.UUID
	copy(id[:], buf[:16])
	key, err := s.batchKey(id)
	if err != nil {
		return Decoded{}, err
	}
	if !hmac.Equal(buf[24+nonceLen:], mac(key, buf[:24+nonceLen])) {
		return Decoded{}, fmt.Errorf("%w: código QR desconocido", domain.ErrNotFound)
	}
	serial := int64(binary.BigEndian.Uint64(buf[16:24]))
	if serial <= 0 {
		return Decoded{}, fmt.Errorf("%w: código QR desconocido", domain.ErrNotFound)
	}
	return Decoded{BatchID: id.String(), Serial: serial}, nil
}

func (s *Signer) batchKey(id uuid.UUID) ([]byte, error) {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, s.master, id[:], hkdfInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("qrvalue: derivar llave: %w", err)
	}
	return key, nil
}

func mac(key, msg []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(msg)
	return h.Sum(nil)[:macLen]
}
