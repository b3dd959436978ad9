package rum

import "runtime"

// Probe reports the host's static capabilities. Environment snapshots are
// recomputed on every call, never cached; a probe should read live values.
type Probe interface {
	Environment() Environment
}

// runtimeProbe is the default: it fills in what the Go runtime can know
// about the process and leaves every host-only field null.
type runtimeProbe struct{}

func (runtimeProbe) Environment() Environment {
	platform := runtime.GOOS + "/" + runtime.GOARCH
	cores := runtime.NumCPU()
	return Environment{
		Platform:            &platform,
		HardwareConcurrency: &cores,
	}
}

// StaticProbe returns the same snapshot on every call. Convenient for hosts
// whose capabilities are captured once at startup, and for tests.
func StaticProbe(env Environment) Probe {
	return staticProbe{env: env}
}

type staticProbe struct {
	env Environment
}

func (p staticProbe) Environment() Environment {
	return p.env
}
