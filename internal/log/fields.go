package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwnerID     = "owner_id"
	FieldSeriesID    = "series_id"
	FieldEntryType   = "entry_type"
	FieldRecurrence  = "recurrence"
	FieldAmountCents = "amount_cents"
	FieldCategoryID  = "category_id"
	FieldCardID      = "card_id"
	FieldSequence    = "seq"
	FieldTotalLabel  = "total_label"
	FieldDate        = "date"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldRows        = "rows"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentSeries    = "series"
	ComponentGenerator = "generator"
	ComponentBilling   = "billing"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpExpand   = "expand"
	OpExtend   = "extend"
	OpResolve  = "resolve"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
