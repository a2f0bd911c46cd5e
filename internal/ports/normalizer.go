package ports

// Normalizer cleans up free-text user input such as directory paths.
type Normalizer interface {
	Normalize(text string) string
}
