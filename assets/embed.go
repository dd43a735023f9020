// assets/embed.go
//
// Embedded data files. catalog.json is the built-in card catalog: the 24
// farm-animal sets used when no remote or file catalog is configured.

package assets

import (
	"embed"
)

//go:embed catalog.json
var FS embed.FS

// DefaultCatalog returns the raw JSON of the built-in card catalog.
func DefaultCatalog() ([]byte, error) {
	return FS.ReadFile("catalog.json")
}
