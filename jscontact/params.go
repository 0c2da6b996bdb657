package jscontact

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ParamValue is a vCard parameter value list. A single value is written as
// a JSON string, several as an array.
type ParamValue []string

// MarshalJSON implements json.Marshaler.
func (p ParamValue) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}

	return json.Marshal([]string(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ParamValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ParamValue{s}

		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parameter value: %w", err)
	}

	*p = list

	return nil
}

// VCardProp is a vCard property kept verbatim. It is written as the four
// element array [name, parameters, value type, value] where the property
// group, if any, is the "group" parameter.
type VCardProp struct {
	Name      string `validate:"required"`
	Params    map[string]ParamValue
	ValueType string
	Value     string
}

// GroupParam is the parameter that carries the property group.
const GroupParam = "group"

// ValueTypeUnknown marks a value kept as raw vCard text.
const ValueTypeUnknown = "unknown"

// MarshalJSON implements json.Marshaler.
func (p VCardProp) MarshalJSON() ([]byte, error) {
	params := p.Params
	if params == nil {
		params = map[string]ParamValue{}
	}

	valueType := p.ValueType
	if valueType == "" {
		valueType = ValueTypeUnknown
	}

	return json.Marshal([]any{p.Name, params, valueType, p.Value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *VCardProp) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("vCardProps entry: %w", err)
	}

	if len(parts) < 4 {
		return errors.New("vCardProps entry: want [name, parameters, type, value]")
	}

	var out VCardProp

	if err := json.Unmarshal(parts[0], &out.Name); err != nil {
		return fmt.Errorf("vCardProps name: %w", err)
	}

	if err := json.Unmarshal(parts[1], &out.Params); err != nil {
		return fmt.Errorf("vCardProps %s parameters: %w", out.Name, err)
	}

	if err := json.Unmarshal(parts[2], &out.ValueType); err != nil {
		return fmt.Errorf("vCardProps %s type: %w", out.Name, err)
	}

	// structured values may arrive as arrays; keep their JSON text
	if err := json.Unmarshal(parts[3], &out.Value); err != nil {
		out.Value = string(parts[3])
	}

	*p = out

	return nil
}
