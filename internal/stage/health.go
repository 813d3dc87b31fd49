package stage

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// Disabled reports a stage that is switched off in configuration. It counts
// as ready because nothing is wrong with it.
func Disabled(name string) Health {
	return Health{Name: name, Ready: true, Detail: "disabled"}
}
