// seed_catalog genera la migración SQL que puebla el directorio de catálogo
// (productos, estados, OEMs, autorizaciones, dealers y RTOs) a partir de CSVs.
//
// Uso: go run ./cmd/seed_catalog [-charset iso-8859-1] [directorio]
// Por defecto lee ./catalog y detecta el charset por archivo.
// Escribe: internal/infrastructure/postgres/migrations/00005_seed_catalog.sql
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/qrcert-api/internal/infrastructure/catalogcsv"
)

func main() {
	charset := flag.String("charset", catalogcsv.CharsetAuto, "utf-8 | iso-8859-1 (vacío = detectar)")
	flag.Parse()

	dir := "catalog"
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}
	c, err := catalogcsv.Load(dir, *charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	// Ruta del script de salida (relativa al módulo)
	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "00005_seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := c.WriteSQL(out, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generado %s: %d productos, %d estados, %d OEMs, %d dealers, %d RTOs\n",
		outPath, len(c.Products), len(c.States), len(c.OEMs), len(c.Dealers), len(c.RTOs))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
