package consts

// Callback data prefixes. The payload after a prefix may itself contain
// underscores (URLs do), so consumers split with a bounded SplitN and
// keep the trailing component intact.
const (
	CallbackSelect       = "select_"
	CallbackContent      = "content_"
	CallbackQuality      = "quality_"
	CallbackAudio        = "audio_"
	CallbackStats        = "stats_"
	CallbackReportCancel = "report_cancel"
)

// Content type markers used in content_ callbacks
const (
	ContentVideo = "video"
	ContentAudio = "audio"
)

// Statistics period markers used in stats_ callbacks
const (
	PeriodDay   = "day"
	PeriodMonth = "month"
	PeriodAll   = "all"
)
