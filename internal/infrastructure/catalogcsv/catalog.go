// Package catalogcsv lee el directorio de catálogo (productos, estados, OEMs, autorizaciones,
// dealers y RTOs) desde CSVs en UTF-8 o ISO-8859-1.
//
// Archivos reconocidos (todos opcionales, con fila de encabezado):
//
//	products.csv        code,name[,active]
//	states.csv          code,name[,active]
//	oems.csv            code,name[,active]
//	authorizations.csv  oem_code,state_code
//	dealers.csv         id,name,state_code,oem_codes[,phone,address,tax_id,active]   (oem_codes separados por |)
//	rtos.csv            code,name,state_code
package catalogcsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// Charsets aceptados por Load.
const (
	CharsetAuto   = ""
	CharsetUTF8   = "utf-8"
	CharsetLatin1 = "iso-8859-1"
)

// Authorization par OEM ↔ estado habilitado para emitir.
type Authorization struct {
	OEMCode   string
	StateCode string
}

// Catalog contenido del directorio de catálogo.
type Catalog struct {
	Products       []entity.Product
	States         []entity.State
	OEMs           []entity.OEM
	Authorizations []Authorization
	Dealers        []entity.Dealer
	RTOs           []entity.RTO
}

// Sink destino del catálogo cargado. memory.CatalogRepo lo implementa.
type Sink interface {
	AddProduct(p entity.Product)
	AddState(st entity.State)
	AddOEM(o entity.OEM)
	Authorize(oemCode, stateCode string)
	AddDealer(d entity.Dealer)
	AddRTO(o entity.RTO)
}

// Apply vuelca el catálogo en sink, respetando el orden de dependencias.
func (c *Catalog) Apply(sink Sink) {
	for _, p := range c.Products {
		sink.AddProduct(p)
	}
	for _, s := range c.States {
		sink.AddState(s)
	}
	for _, o := range c.OEMs {
		sink.AddOEM(o)
	}
	for _, a := range c.Authorizations {
		sink.Authorize(a.OEMCode, a.StateCode)
	}
	for _, d := range c.Dealers {
		sink.AddDealer(d)
	}
	for _, r := range c.RTOs {
		sink.AddRTO(r)
	}
}

// Load lee los CSVs de dir. Con CharsetAuto un archivo que no es UTF-8 válido se decodifica como ISO-8859-1.
func Load(dir, charset string) (*Catalog, error) {
	switch strings.ToLower(charset) {
	case CharsetAuto, CharsetUTF8, CharsetLatin1, "iso8859-1", "latin1":
	default:
		return nil, fmt.Errorf("catalogcsv: charset desconocido %q", charset)
	}
	c := &Catalog{}
	steps := []struct {
		file string
		cols []string
		row  func(r record) error
	}{
		{"products.csv", []string{"code", "name"}, func(r record) error {
			active, err := r.boolean("active")
			c.Products = append(c.Products, entity.Product{Code: r.get("code"), Name: r.get("name"), Active: active})
			return err
		}},
		{"states.csv", []string{"code", "name"}, func(r record) error {
			active, err := r.boolean("active")
			c.States = append(c.States, entity.State{Code: r.get("code"), Name: r.get("name"), Active: active})
			return err
		}},
		{"oems.csv", []string{"code", "name"}, func(r record) error {
			active, err := r.boolean("active")
			c.OEMs = append(c.OEMs, entity.OEM{Code: r.get("code"), Name: r.get("name"), Active: active})
			return err
		}},
		{"authorizations.csv", []string{"oem_code", "state_code"}, func(r record) error {
			c.Authorizations = append(c.Authorizations, Authorization{OEMCode: r.get("oem_code"), StateCode: r.get("state_code")})
			return nil
		}},
		{"dealers.csv", []string{"id", "name", "state_code", "oem_codes"}, func(r record) error {
			active, err := r.boolean("active")
			c.Dealers = append(c.Dealers, entity.Dealer{
				ID:        r.get("id"),
				Name:      r.get("name"),
				Phone:     r.get("phone"),
				Address:   r.get("address"),
				TaxID:     r.get("tax_id"),
				StateCode: r.get("state_code"),
				OEMCodes:  splitCodes(r.get("oem_codes")),
				Active:    active,
			})
			return err
		}},
		{"rtos.csv", []string{"code", "name", "state_code"}, func(r record) error {
			c.RTOs = append(c.RTOs, entity.RTO{Code: r.get("code"), Name: r.get("name"), StateCode: r.get("state_code")})
			return nil
		}},
	}
	for _, s := range steps {
		if err := readFile(filepath.Join(dir, s.file), charset, s.cols, s.row); err != nil {
			return nil, fmt.Errorf("catalogcsv: %s: %w", s.file, err)
		}
	}
	return c, nil
}

// record fila indexada por nombre de columna.
type record struct {
	idx    map[string]int
	fields []string
	line   int
}

func (r record) get(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// boolean lee una columna opcional; vacía o ausente vale true.
func (r record) boolean(col string) (bool, error) {
	v := r.get(col)
	if v == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("línea %d: %s=%q no es booleano", r.line, col, v)
	}
	return b, nil
}

func readFile(path, charset string, required []string, row func(record) error) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	cr := csv.NewReader(decode(raw, charset))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return fmt.Errorf("falta la columna %q", col)
		}
	}
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		r := record{idx: idx, fields: fields, line: line}
		for _, col := range required {
			if r.get(col) == "" {
				return fmt.Errorf("línea %d: %s vacío", line, col)
			}
		}
		if err := row(r); err != nil {
			return err
		}
	}
}

func decode(raw []byte, charset string) io.Reader {
	switch strings.ToLower(charset) {
	case CharsetUTF8:
		return bytes.NewReader(raw)
	case CharsetAuto:
		if utf8.Valid(raw) {
			return bytes.NewReader(raw)
		}
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
}

func splitCodes(s string) []string {
	var out []string
	for _, c := range strings.Split(s, "|") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
