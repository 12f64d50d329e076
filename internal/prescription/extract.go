package prescription

import "encoding/json"

// ExtractReferencedLensProduct pulls the lens product reference out of a raw
// inline prescription document. The reference is display-only, so malformed
// or partial input yields "no reference" rather than an error.
func ExtractReferencedLensProduct(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var doc struct {
		LensProductID any `json:"lensProductId"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", false
	}

	id, ok := doc.LensProductID.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
