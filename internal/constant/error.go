package constant

const (
	ERR_VALIDATION_CODE                 = "VALIDATION_ERROR"
	ERR_INVALID_REQUEST_BODY_ERROR_CODE = "INVALID_REQUEST_BODY_ERROR"
	ERR_INTERNAL_SERVER_ERROR_CODE      = "INTERNAL_SERVER_ERROR"
	ERR_INTENRAL_SERVER_ERROR_MESSAGE   = "Something went wrong. If the problem persists, please contact support"
	ERR_INVALID_REQUEST_BODY_MESSAGE    = "The request is invalid or malformed"
	ERR_NOT_FOUND_ERROR                 = "NOT_FOUND_ERROR"
	ERR_UNATHORIZED_ERROR               = "UNAUTHORIEZED_ERROR"

	ERR_AUTH_REQUIRED_CODE    = "AUTH_REQUIRED"
	ERR_TOGGLE_IN_FLIGHT_CODE = "TOGGLE_IN_FLIGHT"
	ERR_MUTATION_FAILED_CODE  = "MUTATION_FAILED"
	ERR_FETCH_FAILED_CODE     = "FETCH_FAILED"
	ERR_TARGET_UNMOUNTED_CODE = "TARGET_UNMOUNTED"
	ERR_RATE_LIMITED_CODE     = "RATE_LIMITED"
)
