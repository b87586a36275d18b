package extract

// Option configures extraction.
type Option func(*options)

type options struct {
	constructorProperties bool
}

func defaultOptions() options {
	return options{constructorProperties: true}
}

// WithConstructorProperties controls whether constructor bodies are walked
// for documented `this.x = …` assignments. Enabled by default.
func WithConstructorProperties(on bool) Option {
	return func(o *options) {
		o.constructorProperties = on
	}
}
