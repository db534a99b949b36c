package bot

// Text commands, matched on trimmed lowercased message text.
const (
	CommandStart    = "start"
	CommandSupport  = "support"
	CommandNewAudio = "new audio"
	CommandStats    = "stats"
	CommandAdmin    = "admin"
)

// Quick-reply button ids.
const (
	ButtonNewAudio = "new_audio"
	ButtonSupport  = "support"
	ButtonCancel   = "cancel"
)

// Supported media MIME types for job admission. Anything else is never
// admitted into the pipeline.
var supportedMimeTypes = map[string]bool{
	"audio/aac":              true,
	"audio/mp4":              true,
	"audio/mpeg":             true,
	"audio/amr":              true,
	"audio/ogg; codecs=opus": true,
	"video/mp4":              true,
	"video/3gp":              true,
}
