package entity

import "time"

// QrCode es un serial materializado dentro del rango de un lote.
// CertificateID se asigna una única vez al redimir y nunca se limpia.
type QrCode struct {
	ID            string
	BatchID       string
	Serial        int64
	Value         string // valor opaco impreso en el QR
	CertificateID *string
	CreatedAt     time.Time
}

// Redeemed indica si el código ya está vinculado a un certificado.
func (q *QrCode) Redeemed() bool {
	return q.CertificateID != nil && *q.CertificateID != ""
}
