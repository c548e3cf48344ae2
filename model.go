package chartflow

// Model identifies a model and the provider that serves it.
type Model interface {
	// String returns the identifier sent to the provider API.
	String() string
	// Provider returns the provider serving this model.
	Provider() Provider
}
