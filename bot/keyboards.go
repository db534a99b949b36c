package bot

import "voicescribe/whapi"

var startKeyboard = whapi.NewMarkup(
	whapi.QuickReply("🎧 New audio", ButtonNewAudio),
	whapi.QuickReply("📞 Support", ButtonSupport),
)

var newAudioKeyboard = whapi.NewMarkup(
	whapi.QuickReply("🎧 New audio", ButtonNewAudio),
)

var cancelKeyboard = whapi.NewMarkup(
	whapi.QuickReply("❌ Cancel", ButtonCancel),
)
