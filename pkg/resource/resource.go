// Package resource shapes models into the JSON the storefront API returns.
//
//	var ProductResource resource.Transformer[models.Product] = func(p models.Product) resource.Map {
//	    return resource.Map{"id": p.ID, "name": p.Name, "current_price": p.CurrentPrice()}
//	}
//
//	c.Success(resource.One(ProductResource, product))
//	c.Paginated("products", resource.Many(ProductResource, products), page)
package resource

// Map is the output of a transformer.
type Map = map[string]interface{}

// Transformer turns one model into its API shape.
type Transformer[T any] func(T) Map

// One transforms a single value.
func One[T any](t Transformer[T], v T) Map {
	return t(v)
}

// Many transforms a slice. The result is never nil so it encodes as [].
func Many[T any](t Transformer[T], items []T) []Map {
	out := make([]Map, 0, len(items))
	for _, v := range items {
		out = append(out, t(v))
	}
	return out
}

// Merge returns a copy of base with extra's keys laid over it.
func Merge(base Map, extra Map) Map {
	out := make(Map, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
