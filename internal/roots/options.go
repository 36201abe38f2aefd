package roots

// Option configures an engine invocation.
type Option func(*settings)

type settings struct {
	observe func(Row) error
}

// WithObserver registers fn to be called after every appended row.
// A non-nil return stops the engine and is handed back to the caller.
func WithObserver(fn func(Row) error) Option {
	return func(s *settings) { s.observe = fn }
}

func newSettings(opts []Option) settings {
	var s settings
	for _, o := range opts {
		o(&s)
	}
	return s
}

func (s settings) emit(r Row) error {
	if s.observe == nil {
		return nil
	}
	return s.observe(r)
}
