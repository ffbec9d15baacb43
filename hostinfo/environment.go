package hostinfo

import "os"

// Environment reads the process environment.
type Environment interface {
	Getenv(key string) string
	Environ() []string
	Getwd() (string, error)
	Getpid() int
}

// OSEnvironment is the Environment of the running process.
type OSEnvironment struct{}

var _ Environment = OSEnvironment{}

func (OSEnvironment) Getenv(key string) string { return os.Getenv(key) }
func (OSEnvironment) Environ() []string { return os.Environ() }
func (OSEnvironment) Getwd() (string, error) { return os.Getwd() }
func (OSEnvironment) Getpid() int { return os.Getpid() }
