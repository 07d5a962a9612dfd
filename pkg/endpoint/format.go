package endpoint

import (
	"encoding/json"
	"fmt"
)

func stringify(v any) string {
	switch t := v.(type) {
	case fmt.Stringer:
		return t.String()
	case int, int64, float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
