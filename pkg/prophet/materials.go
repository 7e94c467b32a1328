package prophet

import "strings"

// Material describes one entry of the resin catalog.
type Material struct {
	Code string
	Name string
	// DefaultPrintML is the assumed per-print consumption when a
	// tenant has no usage history for this material.
	DefaultPrintML float64
	// PricePerLiter is the approximate retail price in USD.
	PricePerLiter float64
	// LayerHeights are the supported layer heights in mm.
	LayerHeights []float64
}

// Catalog is an immutable material lookup handed to the Prophet and
// the cost estimator. Deployments can build their own instead of
// relying on a hidden global table.
type Catalog struct {
	materials map[string]Material
}

const (
	// FallbackPrintML is the per-print estimate for material codes
	// not present in the catalog, and for histories whose rows carry
	// no prints.
	FallbackPrintML = 50.0

	// FallbackPricePerLiter is the cost estimate for unknown codes.
	FallbackPricePerLiter = 149.0
)

// NewCatalog builds a catalog from a list of materials.
func NewCatalog(materials []Material) *Catalog {
	m := make(map[string]Material, len(materials))
	for _, mat := range materials {
		m[mat.Code] = mat
	}
	return &Catalog{materials: m}
}

// DefaultCatalog returns the stock Formlabs resin catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Material{
		{Code: "FLGPGR05", Name: "Grey V5", DefaultPrintML: 45, PricePerLiter: 149, LayerHeights: []float64{0.025, 0.05, 0.1}},
		{Code: "FLGPBK05", Name: "Black V5", DefaultPrintML: 45, PricePerLiter: 149, LayerHeights: []float64{0.025, 0.05, 0.1}},
		{Code: "FLGPCL05", Name: "Clear V5", DefaultPrintML: 45, PricePerLiter: 149, LayerHeights: []float64{0.025, 0.05, 0.1}},
		{Code: "FLGPWH05", Name: "White V5", DefaultPrintML: 45, PricePerLiter: 149, LayerHeights: []float64{0.025, 0.05, 0.1}},
		{Code: "FLTO2K02", Name: "Tough 2000 V2", DefaultPrintML: 60, PricePerLiter: 189, LayerHeights: []float64{0.05, 0.1}},
		{Code: "FLTOTL02", Name: "Tough 1500 V2", DefaultPrintML: 60, PricePerLiter: 189, LayerHeights: []float64{0.05, 0.1}},
		{Code: "FLDUCL21", Name: "Durable V2.1", DefaultPrintML: 50, PricePerLiter: 175, LayerHeights: []float64{0.05, 0.1}},
		{Code: "FLELCL02", Name: "Elastic 50A V2", DefaultPrintML: 55, PricePerLiter: 199, LayerHeights: []float64{0.05, 0.1}},
		{Code: "FLFMGR01", Name: "Fast Model V1", DefaultPrintML: 40, PricePerLiter: 99, LayerHeights: []float64{0.05, 0.1, 0.2}},
	})
}

// Get returns the material for a code.
func (c *Catalog) Get(code string) (Material, bool) {
	m, ok := c.materials[code]
	return m, ok
}

// DefaultPrintVolume returns the per-print estimate for a code,
// falling back to FallbackPrintML for unknown codes.
func (c *Catalog) DefaultPrintVolume(code string) float64 {
	if m, ok := c.materials[code]; ok {
		return m.DefaultPrintML
	}
	return FallbackPrintML
}

// PricePerLiter returns the USD price per liter for a code, falling
// back to FallbackPricePerLiter for unknown codes.
func (c *Catalog) PricePerLiter(code string) float64 {
	if m, ok := c.materials[code]; ok {
		return m.PricePerLiter
	}
	return FallbackPricePerLiter
}

// DisplayName returns the human name for a code, or the code itself.
func (c *Catalog) DisplayName(code string) string {
	if m, ok := c.materials[code]; ok {
		return m.Name
	}
	return code
}

// keyword → material code + default layer height, ordered by
// specificity (longer phrases first).
var keywordMap = []struct {
	keyword string
	code    string
	layer   float64
}{
	{"tough 2000", "FLTO2K02", 0.1},
	{"tough 1500", "FLTOTL02", 0.1},
	{"fast model", "FLFMGR01", 0.1},
	{"grey v5", "FLGPGR05", 0.05},
	{"black v5", "FLGPBK05", 0.05},
	{"clear v5", "FLGPCL05", 0.05},
	{"white v5", "FLGPWH05", 0.05},
	{"elastic", "FLELCL02", 0.1},
	{"flexible", "FLELCL02", 0.1},
	{"durable", "FLDUCL21", 0.1},
	{"tough", "FLTO2K02", 0.1},
	{"grey", "FLGPGR05", 0.05},
	{"gray", "FLGPGR05", 0.05},
	{"black", "FLGPBK05", 0.05},
	{"clear", "FLGPCL05", 0.05},
	{"white", "FLGPWH05", 0.05},
	{"fast", "FLFMGR01", 0.1},
}

// MaterialQuery is the result of resolving a free-form material
// description.
type MaterialQuery struct {
	MaterialCode string
	MaterialName string
	LayerHeight  float64
}

// ParseMaterial resolves a free-form description ("tough grey resin",
// "clear v5 0.025") into a material code and layer height. Unmatched
// queries default to Grey V5 at 0.05mm.
func (c *Catalog) ParseMaterial(query string) MaterialQuery {
	q := strings.ToLower(query)

	code := "FLGPGR05"
	defaultLayer := 0.05
	for _, k := range keywordMap {
		if strings.Contains(q, k.keyword) {
			code = k.code
			defaultLayer = k.layer
			break
		}
	}

	var layer float64
	switch {
	case strings.Contains(q, "0.025"):
		layer = 0.025
	case strings.Contains(q, "0.05"):
		layer = 0.05
	case strings.Contains(q, "0.1"):
		layer = 0.1
	case strings.Contains(q, "0.2"):
		layer = 0.2
	case strings.Contains(q, "detail"), strings.Contains(q, "fine"):
		layer = 0.025
	case strings.Contains(q, "draft"), strings.Contains(q, "fast"), strings.Contains(q, "speed"):
		layer = 0.1
	default:
		layer = defaultLayer
	}

	// Snap to the nearest supported layer height.
	if m, ok := c.materials[code]; ok && len(m.LayerHeights) > 0 {
		nearest := m.LayerHeights[0]
		for _, h := range m.LayerHeights {
			if abs(h-layer) < abs(nearest-layer) {
				nearest = h
			}
		}
		layer = nearest
	}

	return MaterialQuery{
		MaterialCode: code,
		MaterialName: c.DisplayName(code),
		LayerHeight:  layer,
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
