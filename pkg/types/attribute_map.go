package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AttributeMap stores free-form product attributes as a jsonb column.
type AttributeMap map[string]string

// Value implements driver.Valuer.
func (m AttributeMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("AttributeMap: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (m *AttributeMap) Scan(value any) error {
	if value == nil {
		*m = AttributeMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("AttributeMap: unsupported Scan type %T", value)
	}
	if len(raw) == 0 {
		*m = AttributeMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}
