package log

// Field names shared across components.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldTransaction = "transaction_id"
	FieldType        = "type"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldSymbol      = "symbol"
	FieldSheetsRef   = "sheets_ref"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentLedger    = "ledger"
	ComponentChat      = "chat"
	ComponentSentiment = "sentiment"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

const (
	OpCreate   = "create"
	OpList     = "list"
	OpSummary  = "summary"
	OpSync     = "sync"
	OpSignUp   = "sign_up"
	OpSignIn   = "sign_in"
	OpSignOut  = "sign_out"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields builds key/value pairs for slog in insertion order.
type Fields []any

func NewFields() Fields { return make(Fields, 0, 8) }

func (f Fields) Add(key string, value any) Fields { return append(f, key, value) }

func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return append(f, FieldError, err.Error())
}

func (f Fields) WithOperation(op string) Fields { return append(f, FieldOperation, op) }

func (f Fields) WithUser(userID string) Fields { return append(f, FieldUserID, userID) }

// WithTransaction adds the loggable fields of a transaction. The description
// is left out since it is free text entered by the user.
func (f Fields) WithTransaction(id, typ, amount, category string) Fields {
	return append(f,
		FieldTransaction, id,
		FieldType, typ,
		FieldAmount, amount,
		FieldCategory, category)
}

func (f Fields) WithHTTP(method, path string, status int, durationMs int64) Fields {
	return append(f,
		FieldMethod, method,
		FieldPath, path,
		FieldStatusCode, status,
		FieldDuration, durationMs)
}
