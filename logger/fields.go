package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldPipeline  = "pipeline_id"
	FieldBackend   = "backend"
	FieldOperation = "operation"
	FieldKind      = "kind"
	FieldElements  = "elements"
	FieldError     = "error"
	FieldLabel     = "label"
	FieldStep      = "step"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Debug("dispatched", logger.Fields("backend", "native", "elements", 512))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}
