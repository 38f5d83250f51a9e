package catalogcsv

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteSQL escribe el catálogo como migración goose idempotente (upserts por clave).
func (c *Catalog) WriteSQL(w io.Writer, source string) error {
	out := bufio.NewWriter(w)

	out.WriteString("-- Directorio de catálogo\n")
	fmt.Fprintf(out, "-- Generado desde %s\n\n", source)
	out.WriteString("-- +goose Up\n")

	type named struct {
		code, name string
		active     bool
	}
	simple := func(table string, rows []named) {
		if len(rows) == 0 {
			return
		}
		fmt.Fprintf(out, "INSERT INTO %s (code, name, active) VALUES\n", table)
		for i, r := range rows {
			fmt.Fprintf(out, "  ('%s', '%s', %t)%s\n", escapeSQL(r.code), escapeSQL(r.name), r.active, sep(i, len(rows)))
		}
		out.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active;\n\n")
	}

	products := make([]named, 0, len(c.Products))
	for _, p := range c.Products {
		products = append(products, named{p.Code, p.Name, p.Active})
	}
	states := make([]named, 0, len(c.States))
	for _, s := range c.States {
		states = append(states, named{s.Code, s.Name, s.Active})
	}
	oems := make([]named, 0, len(c.OEMs))
	for _, o := range c.OEMs {
		oems = append(oems, named{o.Code, o.Name, o.Active})
	}
	simple("products", products)
	simple("states", states)
	simple("oems", oems)

	if len(c.Authorizations) > 0 {
		out.WriteString("INSERT INTO oem_state_authorizations (oem_code, state_code) VALUES\n")
		for i, a := range c.Authorizations {
			fmt.Fprintf(out, "  ('%s', '%s')%s\n", escapeSQL(a.OEMCode), escapeSQL(a.StateCode), sep(i, len(c.Authorizations)))
		}
		out.WriteString("ON CONFLICT DO NOTHING;\n\n")
	}

	if len(c.Dealers) > 0 {
		out.WriteString("INSERT INTO dealers (id, name, phone, address, tax_id, state_code, oem_codes, active) VALUES\n")
		for i, d := range c.Dealers {
			codes := make([]string, len(d.OEMCodes))
			for j, oc := range d.OEMCodes {
				codes[j] = "'" + escapeSQL(oc) + "'"
			}
			fmt.Fprintf(out, "  ('%s', '%s', '%s', '%s', '%s', '%s', ARRAY[%s]::TEXT[], %t)%s\n",
				escapeSQL(d.ID), escapeSQL(d.Name), escapeSQL(d.Phone), escapeSQL(d.Address), escapeSQL(d.TaxID),
				escapeSQL(d.StateCode), strings.Join(codes, ", "), d.Active, sep(i, len(c.Dealers)))
		}
		out.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone,\n")
		out.WriteString("  address = EXCLUDED.address, tax_id = EXCLUDED.tax_id, state_code = EXCLUDED.state_code,\n")
		out.WriteString("  oem_codes = EXCLUDED.oem_codes, active = EXCLUDED.active;\n\n")
	}

	if len(c.RTOs) > 0 {
		out.WriteString("INSERT INTO rtos (code, name, state_code) VALUES\n")
		for i, r := range c.RTOs {
			fmt.Fprintf(out, "  ('%s', '%s', '%s')%s\n", escapeSQL(r.Code), escapeSQL(r.Name), escapeSQL(r.StateCode), sep(i, len(c.RTOs)))
		}
		out.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, state_code = EXCLUDED.state_code;\n\n")
	}

	// El seed no se revierte: los lotes y certificados referencian el catálogo.
	out.WriteString("-- +goose Down\nSELECT 1;\n")
	return out.Flush()
}

func sep(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
