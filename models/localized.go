package models

// Localized pairs a language-independent base record with the translation
// for one requested language. Translation is nil when that language has no
// row; there is no fallback to another language.
type Localized[B any, T any] struct {
	Base        B  `json:"base"`
	Translation *T `json:"translation"`
}

// Translated reports whether the requested language had a translation row.
func (l Localized[B, T]) Translated() bool {
	return l.Translation != nil
}
