package entities

// ContentKind describes what kind of media a fetch produced
type ContentKind string

const (
	KindVideo ContentKind = "video"
	KindAudio ContentKind = "audio"
	KindPhoto ContentKind = "photo"
)

// FetchResult describes a downloaded media file ready for delivery.
// FilePath points inside a workspace that stays alive until the
// caller releases it, so delivery must happen before release.
type FetchResult struct {
	FilePath string
	Kind     ContentKind
	Duration int
	Width    int
	Height   int
	Title    string
	Artist   string
	Track    string
}

// SearchResult is one entry of a video search used to build
// selection buttons
type SearchResult struct {
	ID       string
	Title    string
	URL      string
	Duration int
	Channel  string
}

// FormatCount pairs a format label with its usage count
type FormatCount struct {
	Format string
	Count  int64
}

// StatsSummary aggregates bot usage statistics for a period
type StatsSummary struct {
	Period              string
	TotalUsers          int64
	TotalSearches       int64
	TotalVideos         int64
	TotalAudio          int64
	TotalTikToks        int64
	TotalDownloads      int64
	SuccessfulDownloads int64
	FailedDownloads     int64
	ErrorCount          int64
	PopularVideoFormats []FormatCount
	PopularAudioFormats []FormatCount
}

// Button is a transport-agnostic inline keyboard button
type Button struct {
	Text string
	Data string
}
