// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of a JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxImageUpload is the maximum size of an uploaded image file.
	MaxImageUpload = 10 << 20 // 10 MB

	// MaxMultipartMemory is how much of a multipart form is held in memory
	// before spilling to temporary files.
	MaxMultipartMemory = 2 << 20 // 2 MB
)
