package handler

const (
	jsonKeyError   = "error"
	jsonKeyMessage = "message"

	paramID       = "id"
	paramFilename = "filename"

	queryStatus = "status"
	querySkip   = "skip"
	queryLimit  = "limit"
	queryCode   = "code"

	formFieldFiles = "files"
	formSceneTitle = "scene_title"

	msgContentTypeJSONRequired = "Content-Type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidSceneID          = "invalid scene id"
	msgFailedRequiresError     = "failed status requires an error message"
	msgSceneDeleted            = "Scene deleted successfully"
	msgNoFilesProvided         = "No files provided"
	msgFileDeletedFmt          = "File %s deleted successfully"
	msgUploadedFmt             = "Successfully uploaded %d files"
	msgDefaultSceneTitleFmt    = "Uploaded Scene - %d files"
	msgMissingAuthCode         = "missing authorization code"
	msgTokenExchangeFailed     = "failed to exchange authorization code"
	msgGenerateTokenFail       = "failed to generate access token"

	defaultColormap = "gray"
	defaultOpacity  = 1
)
