package service

import "github.com/forgo/odmapi/internal/odm"

// ModelInfo describes an exposed model for API discovery.
type ModelInfo struct {
	Name   string      `json:"name"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one visible field.
type FieldInfo struct {
	Name     string   `json:"name"`
	Kind     odm.Kind `json:"kind"`
	Required bool     `json:"required,omitempty"`
	Model    string   `json:"model,omitempty"`
}

// Models lists the models currently served over HTTP.
func (s *EntityService) Models() []ModelInfo {
	reg := s.store.Registry()
	out := make([]ModelInfo, 0)
	for _, m := range reg.Models() {
		exp, ok := reg.Exposure(m.Name)
		if !ok || !exp.Enabled() {
			continue
		}
		info := ModelInfo{Name: m.Name, Fields: make([]FieldInfo, 0, len(m.Fields))}
		for _, f := range m.Fields {
			if f.Hidden {
				continue
			}
			info.Fields = append(info.Fields, FieldInfo{
				Name:     f.Name,
				Kind:     f.Kind,
				Required: f.Required,
				Model:    f.RefModel,
			})
		}
		out = append(out, info)
	}
	return out
}
