package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	// Declared-source ingestion
	CodeSourceReadError  Code = "SOURCE_READ_ERROR"
	CodeSourceParseError Code = "SOURCE_PARSE_ERROR"
	CodeSourceFetchError Code = "SOURCE_FETCH_ERROR"
	CodeHCLParseError    Code = "HCL_PARSE_ERROR"
	CodeHCLEvalError     Code = "HCL_EVAL_ERROR"

	// Live platform scanning
	CodePlatformAPIError  Code = "PLATFORM_API_ERROR"
	CodePlatformAuthError Code = "PLATFORM_AUTH_ERROR"

	// Comparison core
	CodeNormalization     Code = "NORMALIZATION_ERROR"
	CodeDuplicateEntity   Code = "DUPLICATE_ENTITY_ERROR"
	CodeUnknownEntityType Code = "UNKNOWN_ENTITY_TYPE_ERROR"
	CodeMatchingError     Code = "MATCHING_ERROR"
	CodeComparisonError   Code = "COMPARISON_ERROR"

	// Remediation
	CodeCommandGeneration Code = "COMMAND_GENERATION_ERROR"
	CodeCommandExecution  Code = "COMMAND_EXECUTION_ERROR"
	CodeCommandRejected   Code = "COMMAND_REJECTED"
)

func (c Code) String() string {
	return string(c)
}
