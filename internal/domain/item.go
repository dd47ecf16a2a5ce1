package domain

// Item is a saved article returned by Pocket's retrieve endpoint.
//
// Only ResolvedURL is used as identity; the rest is carried for logging.
type Item struct {
	ID          string
	ResolvedURL string
	Title       string
	Tags        []string
	SortID      int
}

// ResolvedURLs returns the resolved URL of every item, in order.
func ResolvedURLs(items []Item) []string {
	urls := make([]string, 0, len(items))
	for _, it := range items {
		urls = append(urls, it.ResolvedURL)
	}
	return urls
}
