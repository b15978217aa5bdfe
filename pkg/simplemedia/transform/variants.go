package transform

// Variant names a responsive size preset.
type Variant string

const (
	VariantThumbnail Variant = "thumbnail"
	VariantSmall     Variant = "small"
	VariantMedium    Variant = "medium"
	VariantLarge     Variant = "large"
	VariantOriginal  Variant = "original"
)

// VariantOrder lists the presets from smallest to largest.
var VariantOrder = []Variant{VariantThumbnail, VariantSmall, VariantMedium, VariantLarge, VariantOriginal}

// Presets maps each variant to its option bundle.
var Presets = map[Variant]Options{
	VariantThumbnail: {Width: 150, Height: 150, Quality: 70, Format: DefaultFormat, Crop: "maintain_ratio"},
	VariantSmall:     {Width: 400, Quality: DefaultQuality, Format: DefaultFormat},
	VariantMedium:    {Width: 800, Quality: DefaultQuality, Format: DefaultFormat},
	VariantLarge:     {Width: 1200, Quality: 85, Format: DefaultFormat},
	VariantOriginal:  {Quality: 90, Format: DefaultFormat},
}

// Variants derives every named responsive URL for storedPath. Videos and empty
// paths map every variant to the same (possibly empty) base URL.
func (e *Engine) Variants(storedPath string) map[Variant]string {
	out := make(map[Variant]string, len(VariantOrder))
	for _, v := range VariantOrder {
		out[v] = e.BuildURL(storedPath, Presets[v])
	}
	return out
}

// URL is a convenience for a single preset.
func (e *Engine) URL(storedPath string, v Variant) string {
	return e.BuildURL(storedPath, Presets[v])
}
