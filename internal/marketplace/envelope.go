package marketplace

import (
	"fmt"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// Normalize — приводит произвольный JSON-ответ к {success, data, error}.
// Маркетплейс не оборачивает ответы массовых операций, поэтому:
//   - nil → ошибка "No response received";
//   - объект с ключом success → как есть;
//   - объект без success → успех, data = объект;
//   - массив → успех, data = массив.
func Normalize(v any) domain.Envelope {
	switch t := v.(type) {
	case nil:
		return domain.Envelope{Success: false, Error: "No response received"}
	case map[string]any:
		s, ok := t["success"]
		if !ok {
			return domain.Envelope{Success: true, Data: t}
		}
		env := domain.Envelope{Success: truthy(s), Data: t["data"]}
		env.Error = stringOf(t["error"])
		env.Message = stringOf(t["message"])
		return env
	case []any:
		msg := "Empty response list"
		if len(t) > 0 {
			msg = fmt.Sprintf("Processed %d items", len(t))
		}
		return domain.Envelope{Success: true, Data: t, Message: msg}
	default:
		return domain.Envelope{Success: true, Data: t}
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case float64:
		return t != 0
	default:
		return v != nil
	}
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
