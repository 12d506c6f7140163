package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldRoute      = "route"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldPeriod     = "period"
	FieldPrevPeriod = "previous_period"
	FieldBackend    = "backend"
	FieldCategories = "categories"
)

// Components
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStats   = "stats"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

// Operations
const (
	OpReport       = "report"
	OpList         = "list"
	OpInvalidate   = "invalidate"
	OpMigrate      = "migrate"
	OpSeed         = "seed"
	OpShutdown     = "shutdown"
	OpStartup      = "startup"
	OpConsume      = "consume"
	OpPublish      = "publish"
	OpHealthCheck  = "health_check"
	OpReadyCheck   = "ready_check"
	OpParseRequest = "parse_request"
)

// Error categories, one per error kind the engine reports.
const (
	ErrorTypeValidation    = "invalid_input"
	ErrorTypeCollaborator  = "collaborator_failure"
	ErrorTypeComputation   = "computation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithReport adds the user and the two compared months.
func (f LogFields) WithReport(userID, period, previous string) LogFields {
	f[FieldUserID] = userID
	f[FieldPeriod] = period
	f[FieldPrevPeriod] = previous
	return f
}

func (f LogFields) WithHTTPRequest(method, path, route, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if route != "" {
		f[FieldRoute] = route
	}
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
