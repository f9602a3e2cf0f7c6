package logger

// Standard field keys.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldCache      = "cache"
	FieldProvider   = "provider"
	FieldRank       = "rank"
	FieldResources  = "resources"
	FieldCandidates = "candidates"
	FieldOutcome    = "outcome"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("store created", logger.Fields("cache", "users", "provider", "heap"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// MergeError adds an error field to an existing map.
func MergeError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields[FieldError] = err.Error()
	}
	return fields
}
