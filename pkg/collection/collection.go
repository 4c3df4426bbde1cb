// Package collection holds the generic slice helpers the services lean on
// when shaping cart lines, order snapshots and analytics rows.
//
//	ids := collection.Map(cart.Items, func(i models.CartItem) uint { return i.ProductID })
//	byID := collection.KeyBy(products, func(p models.Product) uint { return p.ID })
package collection

import "sort"

// Map transforms each element of s.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter keeps the elements for which fn is true.
func Filter[T any](s []T, fn func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// First returns the first element matching fn.
func First[T any](s []T, fn func(T) bool) (T, bool) {
	for _, v := range s {
		if fn(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Contains reports whether any element satisfies fn.
func Contains[T any](s []T, fn func(T) bool) bool {
	_, ok := First(s, fn)
	return ok
}

// GroupBy partitions s by key.
func GroupBy[T any, K comparable](s []T, fn func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, v := range s {
		k := fn(v)
		out[k] = append(out[k], v)
	}
	return out
}

// KeyBy indexes s by key. On duplicate keys the last element wins.
func KeyBy[T any, K comparable](s []T, fn func(T) K) map[K]T {
	out := make(map[K]T, len(s))
	for _, v := range s {
		out[fn(v)] = v
	}
	return out
}

// Unique drops repeated values, keeping first occurrences in order.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Sum adds up the numbers fn extracts.
func Sum[T any, N int | int64 | float64](s []T, fn func(T) N) N {
	var total N
	for _, v := range s {
		total += fn(v)
	}
	return total
}

// SortBy sorts s in place, keeping equal elements in their original order.
func SortBy[T any](s []T, less func(a, b T) bool) []T {
	sort.SliceStable(s, func(i, j int) bool { return less(s[i], s[j]) })
	return s
}

// Take returns at most the first n elements.
func Take[T any](s []T, n int) []T {
	if n >= len(s) {
		return s
	}
	if n < 0 {
		return nil
	}
	return s[:n]
}

// Chunk splits s into slices of at most n elements.
func Chunk[T any](s []T, n int) [][]T {
	if n <= 0 {
		return nil
	}
	var out [][]T
	for i := 0; i < len(s); i += n {
		end := i + n
		if end > len(s) {
			end = len(s)
		}
		out = append(out, s[i:end])
	}
	return out
}
