package odm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type schemaFile struct {
	Models []schemaModel `yaml:"models"`
}

type schemaModel struct {
	Name    string        `yaml:"name"`
	HTTPAPI *schemaAPI    `yaml:"http_api"`
	Fields  []schemaField `yaml:"fields"`
}

type schemaAPI struct {
	Enabled bool `yaml:"enabled"`
}

type schemaField struct {
	Name      string `yaml:"name"`
	Kind      Kind   `yaml:"kind"`
	Required  bool   `yaml:"required"`
	Default   any    `yaml:"default"`
	MaxLength int    `yaml:"max_length"`
	Hidden    bool   `yaml:"hidden"`
	Model     string `yaml:"model"`
}

// LoadSchema reads a YAML schema file into a registry.
func LoadSchema(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseSchema(data)
}

// ParseSchema parses YAML schema text into a registry.
// Models with an http_api section get a DefaultExposure carrying their enabled flag.
func ParseSchema(data []byte) (*Registry, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if len(sf.Models) == 0 {
		return nil, fmt.Errorf("%w: no models defined", ErrInvalidSchema)
	}

	reg := NewRegistry()
	for _, sm := range sf.Models {
		fields := make([]*Field, 0, len(sm.Fields))
		for _, fd := range sm.Fields {
			f := &Field{
				Name:      fd.Name,
				Kind:      fd.Kind,
				Required:  fd.Required,
				MaxLength: fd.MaxLength,
				Hidden:    fd.Hidden || fd.Kind == KindPassword,
				RefModel:  fd.Model,
			}
			if fd.Default != nil {
				v, err := f.convert(fd.Default)
				if err != nil {
					return nil, fmt.Errorf("%w: %s.%s default: %v", ErrInvalidSchema, sm.Name, fd.Name, err)
				}
				f.Default = v
			}
			fields = append(fields, f)
		}

		m, err := NewModel(sm.Name, fields...)
		if err != nil {
			return nil, err
		}
		var exp Exposure
		if sm.HTTPAPI != nil {
			m.Exposed = true
			m.Enabled = sm.HTTPAPI.Enabled
			exp = DefaultExposure{Enable: m.Enabled}
		}
		if err := reg.Register(m, exp); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
