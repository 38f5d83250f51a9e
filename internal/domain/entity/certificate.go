package entity

import "time"

// Certificate es el certificado emitido al redimir un QrCode.
// ProductCode, StateCode y OEMCode se copian del lote del código para los reportes.
type Certificate struct {
	ID            string
	QrCodeID      string
	QrValue       string
	ProductCode   string
	StateCode     string
	OEMCode       string
	DealerID      string
	DealerDetails DealerDetails // copia desnormalizada; no modifica el registro del dealer
	Vehicle       VehicleDetails
	Owner         OwnerDetails
	Photos        CertificatePhotos
	GeneratedBy   string
	GeneratedAt   time.Time
}

// DealerDetails datos del dealer tal como quedan impresos en el certificado.
type DealerDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id,omitempty"`
}

// VehicleDetails datos del vehículo certificado.
type VehicleDetails struct {
	RegistrationNumber string `json:"registration_number"`
	ChassisNumber      string `json:"chassis_number"`
	EngineNumber       string `json:"engine_number"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	RTOCode            string `json:"rto_code"`
}

// OwnerDetails datos del propietario.
type OwnerDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CertificatePhotos referencias a las fotos ya cargadas (la carga no ocurre aquí).
type CertificatePhotos struct {
	Front string `json:"front"`
	Rear  string `json:"rear"`
	Plate string `json:"plate"`
}
