package telemetry

// Attribute names used on spans and metrics
const (
	AttrMCPToolName      = "mcp.tool.name"           // Tool identifier, e.g. "search"
	AttrMCPToolSuccess   = "mcp.tool.result.success" // Execution success (boolean)
	AttrMCPToolError     = "mcp.tool.result.error"   // Error message if failed
	AttrMCPToolErrorType = "mcp.tool.result.error_type"
	AttrMCPToolArguments = "mcp.tool.arguments"
	AttrMCPSessionID     = "mcp.session.id"
	AttrMCPTransport     = "mcp.transport" // stdio, http or sse

	AttrSearchFormat      = "searxng.format"       // Requested output format
	AttrSearchPage        = "searxng.pageno"       // Requested page
	AttrSearchBackendHost = "searxng.backend.host" // Host of the configured instance
	AttrHTTPStatusCode    = "http.response.status_code"
)

// Span names
const (
	SpanNameToolExecute = "mcp.tool.execute"
)

// Error categories reported on spans and metrics
const (
	ErrorTypeArgument   = "argument"
	ErrorTypeValidation = "validation"
	ErrorTypeTransport  = "transport"
	ErrorTypeUpstream   = "upstream"
	ErrorTypeDecode     = "decode"
	ErrorTypeCancelled  = "cancelled"
	ErrorTypeInternal   = "internal"
)
