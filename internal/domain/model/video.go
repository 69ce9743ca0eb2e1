package model

import "time"

// Video is the target entity of pipelines and batch items.
// Transcript holds the last stored transcription, when one exists; the
// pipeline engine deliberately ignores it and only uses same-run output.
type Video struct {
	ID          string
	UserID      string
	ChannelID   string
	Title       string
	Description string
	AudioURL    string
	Transcript  string
	CreatedAt   time.Time
}

// Channel is a publishing destination owned by a user.
type Channel struct {
	ID       string
	UserID   string
	Name     string
	Platform string
	Timezone string
}
