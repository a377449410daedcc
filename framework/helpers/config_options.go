package helpers

// ConfigOption is implemented by values that apply one optional setting to a
// configuration struct of type T, for use with the vararg options pattern.
type ConfigOption[T any] interface {
	// Configure applies the option's setting to the target.
	Configure(*T) error
}

// ApplyOptions runs each option against the target in order. The first option to return
// an error stops the iteration and that error is returned.
func ApplyOptions[T any, U ConfigOption[T]](target *T, options ...U) error {
	// The extra U parameter lets a caller pass a slice of its own named option type
	// rather than having to build a []ConfigOption[T].
	for _, o := range options {
		if err := o.Configure(target); err != nil {
			return err
		}
	}
	return nil
}
