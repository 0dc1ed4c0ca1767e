package links

// Dedupe returns the distinct values of urls in first-seen order. Equality
// is exact string equality.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	unique := make([]string, 0, len(urls))

	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}

		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	return unique
}
