// Package options implements functional options shared by drivers, codecs
// and DAOs.
package options

// OptionConstructor returns the defaults options are applied to.
type OptionConstructor[T any] func() T

// OptionCallback changes one setting.
type OptionCallback[T any] func(*T)

// ApplyOptions builds the defaults with constructor, zero value when it is
// nil, and applies cbs in order.
func ApplyOptions[T any](constructor OptionConstructor[T], cbs []OptionCallback[T]) T {
	var opts T

	if constructor != nil {
		opts = constructor()
	}

	for _, cb := range cbs {
		if cb != nil {
			cb(&opts)
		}
	}

	return opts
}
