package cache

import "fmt"

// BusinessPrefix namespaces every cached dataset derived from businesses.
const BusinessPrefix = "businesses:"

// FeaturedKey identifies the featured listing of the given size.
func FeaturedKey(limit int) string {
	return fmt.Sprintf("%sfeatured:limit=%d", BusinessPrefix, limit)
}

// RandomKey identifies the random listing of the given size.
func RandomKey(limit int) string {
	return fmt.Sprintf("%srandom:limit=%d", BusinessPrefix, limit)
}
