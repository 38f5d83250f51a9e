// Package pdf genera el certificado de instalación en PDF a partir de un certificado emitido.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Producto      │  N° Certificado + Fecha    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DEALER: Nombre / Tel / Dirección                            │
//	│  PROPIETARIO: Nombre + contacto                              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VEHÍCULO: Matrícula | Chasis | Motor | Marca/Modelo | RTO   │
//	│  FOTOS: referencias frontal / trasera / placa                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR del código redimido + leyenda                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/qrcert-api/internal/application/redemption"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var _ redemption.CertificatePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa redemption.CertificatePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	issuer string
}

// NewMarotoPDFGenerator construye el generador. issuer aparece como autor del documento.
func NewMarotoPDFGenerator(issuer string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{issuer: issuer}
}

// GenerateCertificatePDF genera el PDF y devuelve sus bytes. rto puede ser nil si la oficina ya no está en el catálogo.
func (g *MarotoPDFGenerator) GenerateCertificatePDF(_ context.Context, cert *entity.Certificate, rto *entity.RTO) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Certificado de instalación "+cert.ID, true).
		WithAuthor(g.issuer, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(cert))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(dealerRow(cert.DealerDetails))
	m.AddRows(ownerRow(cert.Owner))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionHeaderRow("VEHÍCULO"))
	for _, r := range vehicleRows(cert.Vehicle, rto) {
		m.AddRows(r)
	}

	m.AddRows(photosRow(cert.Photos))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(cert) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título + producto (izq) y N° certificado + fecha (der).
func headerRow(cert *entity.Certificate) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("CERTIFICADO DE INSTALACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Producto: %s   |   %s / %s", cert.ProductCode, cert.StateCode, cert.OEMCode), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("N° CERTIFICADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(cert.ID, props.Text{
				Style: fontstyle.Bold, Size: 7, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+cert.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func dealerRow(d entity.DealerDetails) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("DEALER INSTALADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(d.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Tel: %s   |   Dirección: %s   |   ID fiscal: %s",
				nonEmpty(d.Phone, "-"),
				nonEmpty(d.Address, "-"),
				nonEmpty(d.TaxID, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func ownerRow(o entity.OwnerDetails) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PROPIETARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(o.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Tel: %s   |   Dirección: %s",
				nonEmpty(o.Phone, "-"),
				nonEmpty(o.Address, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// sectionHeaderRow: cabecera de sección, texto blanco sobre fondo primario.
func sectionHeaderRow(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(text.New(title, props.Text{
		Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 2, Left: 1,
	}))).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// vehicleRows: una fila etiqueta/valor por dato del vehículo.
func vehicleRows(v entity.VehicleDetails, rto *entity.RTO) []core.Row {
	rtoLabel := v.RTOCode
	if rto != nil {
		rtoLabel = fmt.Sprintf("%s - %s", rto.Code, rto.Name)
	}
	pairs := [][2]string{
		{"Matrícula", v.RegistrationNumber},
		{"N° de chasis", v.ChassisNumber},
		{"N° de motor", v.EngineNumber},
		{"Marca / Modelo", v.Make + " " + v.Model},
		{"Oficina RTO", rtoLabel},
	}
	result := make([]core.Row, 0, len(pairs))
	for _, p := range pairs {
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(p[0], props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1,
			})),
			col.New(8).Add(text.New(nonEmpty(p[1], "-"), props.Text{
				Size: 8, Top: 1,
			})),
		))
	}
	return result
}

// photosRow: sólo referencias; las imágenes no se incrustan.
func photosRow(p entity.CertificatePhotos) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("FOTOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
			}),
			text.New(fmt.Sprintf("Frontal: %s   |   Trasera: %s   |   Placa: %s",
				nonEmpty(p.Front, "-"),
				nonEmpty(p.Rear, "-"),
				nonEmpty(p.Plate, "-"),
			), props.Text{Size: 7, Top: 7, Color: colorGray}),
		),
	)
}

// footerRows: QR del código redimido + leyenda.
func footerRows(cert *entity.Certificate) []core.Row {
	return []core.Row{
		row.New(50).Add(
			col.New(4).Add(code.NewQr(cert.QrValue, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Código QR redimido:", props.Text{
					Style: fontstyle.Bold, Size: 8, Top: 4, Left: 3,
				}),
				text.New(cert.QrValue, props.Text{
					Size: 7, Top: 9, Left: 3, Color: colorGray,
				}),
				text.New("Cada código se redime una sola vez.\nEste certificado es el único emitido para él.", props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 22, Left: 3, Color: colorPrimary,
				}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
