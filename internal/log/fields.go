package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOwner      = "owner"
	FieldKind       = "kind"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldPeriod     = "period"
	FieldRowIndex   = "row_index"
	FieldRowCount   = "row_count"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentRegistry = "registry"
	ComponentAdvisor  = "advisor"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpRecord   = "record"
	OpDelete   = "delete"
	OpLoad     = "load"
	OpSave     = "save"
	OpRegister = "register"
	OpAdvise   = "advise"
	OpMirror   = "mirror"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
