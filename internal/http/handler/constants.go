package handler

const (
	jsonKeyError   = "error"
	jsonKeyItems   = "items"
	jsonKeyLinks   = "_links"
	jsonKeySelf    = "self"
	jsonKeyHref    = "href"
	jsonKeyMethods = "methods"

	paramID = "id"

	fieldID      = "id"
	fieldFileKey = "file_key"

	headerAllow = "Allow"

	msgContentTypeJSONRequired = "Content-Type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidResourceID       = "invalid resource id"
	msgAuthenticationRequired  = "authentication required"
	msgInvalidCredentials      = "invalid credentials"
	msgAccessDenied            = "access denied"
	msgResourceNotFound        = "resource not found"
	msgInternalError           = "internal server error"
	msgMissingSecurityContext  = "security context not resolved"
	msgPasswordProcessFail     = "failed to process password"
	msgEmailAlreadyExists      = "email already registered"
	msgCreateUserFail          = "failed to create user"
	msgCreateSessionFail       = "failed to create session"
	msgGenerateTokenFail       = "failed to generate token"
	msgGenerateUploadURLFail   = "failed to generate upload URL"
	msgGenerateDownloadURLFail = "failed to generate download URL"
	msgFileKeyRequired         = "file_key is required"

	errDeleteObjectFmt = "failed to delete object %s: %v"
)
