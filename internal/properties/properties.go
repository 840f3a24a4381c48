// Package properties implements the harness property mechanism: flat
// key=value configuration merged from files and command line flags.
package properties

import (
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
)

type Properties map[string]string

func New() Properties {
	return make(Properties)
}

// LoadFile reads a key=value properties file.
func LoadFile(path string) (Properties, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read properties file %s: %w", path, err)
	}

	return Properties(m), nil
}

// Get returns the value for key, or def when the key is unset.
func (p Properties) Get(key, def string) string {
	if value, ok := p[key]; ok {
		return value
	}

	return def
}

// GetInt returns the value for key parsed as an int, or def when unset.
func (p Properties) GetInt(key string, def int) (int, error) {
	value, ok := p[key]
	if !ok {
		return def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("property %s: %w", key, err)
	}

	return n, nil
}

func (p Properties) Set(key, value string) {
	p[key] = value
}

// Merge copies every entry of o into p, overwriting existing keys.
func (p Properties) Merge(o Properties) {
	for key, value := range o {
		p[key] = value
	}
}
