package azure

import "strings"

// Mapping helpers shared by the per-service scan files. Absent pointers stay
// absent in the property maps, which is what lets provider defaults apply
// during comparison.

func setString(m map[string]any, key string, p *string) {
	if p != nil {
		m[key] = *p
	}
}

func setEnum[T ~string](m map[string]any, key string, p *T) {
	if p != nil {
		m[key] = string(*p)
	}
}

func setBool(m map[string]any, key string, p *bool) {
	if p != nil {
		m[key] = *p
	}
}

func setInt32(m map[string]any, key string, p *int32) {
	if p != nil {
		m[key] = int64(*p)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func tagsToMap(tags map[string]*string) map[string]any {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]any, len(tags))
	for k, v := range tags {
		out[k] = deref(v)
	}
	return out
}

func stringPtrs(ptrs []*string) []any {
	out := make([]any, 0, len(ptrs))
	for _, p := range ptrs {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// splitSKUName separates an Azure storage SKU like "Standard_GRS" into the
// tier and replication vocabulary azurerm uses.
func splitSKUName(sku string) (tier, replication string) {
	parts := strings.SplitN(sku, "_", 2)
	if len(parts) != 2 {
		return sku, ""
	}
	return parts[0], parts[1]
}
