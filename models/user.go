package models

import "time"

/************************************************
/**** MARK: CONVERSATION STATES ****/
/************************************************/

// Conversation state values persisted on the user row. An empty state means
// idle (not awaiting anything). AWAITING_MEDIA is the only state that
// authorizes job admission; the pipeline clears it on completion, and the
// cancel handler clears it to signal cooperative cancellation.
const STATE_START = "start"
const STATE_AWAITING_MEDIA = "awaiting_media"

const SUBSCRIPTION_FREE = "free"

// User representa um usuario do bot. The phone number is the identity and is
// never mutated; everything else is replaceable via a full-record update.
type User struct {
	Number                int64      `gorm:"primary_key" json:"number"`
	Name                  string     `gorm:"default:''" json:"name"`
	UploadedAudios        int        `gorm:"not null;default:0" json:"uploaded_audios"`
	GptRequests           int        `gorm:"not null;default:0" json:"gpt_requests"`
	LastTranscriptionText string     `gorm:"type:text" json:"last_transcription_text"`
	LastSummaryText       string     `gorm:"type:text" json:"last_summary_text"`
	State                 string     `gorm:"default:''" json:"state"`
	IsAdmin               bool       `gorm:"not null;default:false" json:"is_admin"`
	SubscriptionStatus    string     `gorm:"not null;default:'free'" json:"subscription_status"`
	CreatedAt             *time.Time `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at"`
}

// AwaitingMedia reports whether the user is inside the media-submission
// window opened by the new-audio handler.
func (u User) AwaitingMedia() bool {
	return u.State == STATE_AWAITING_MEDIA
}
