package telegram

import (
	"strings"

	"github.com/komuzik/media-bot/internal/domain/bot/consts"
)

// Callback verbs after parsing
const (
	verbSelect       = "select"
	verbContent      = "content"
	verbQuality      = "quality"
	verbAudio        = "audio"
	verbStats        = "stats"
	verbReportCancel = "report_cancel"
)

// callbackAction is a decoded inline keyboard callback
type callbackAction struct {
	verb string
	arg  string
	url  string
}

// parseCallback decodes inline keyboard callback data. URLs may contain
// underscores, so verb_arg_url tokens are split at most twice and the
// remainder is taken as the URL verbatim.
func parseCallback(data string) (callbackAction, bool) {
	switch {
	case data == consts.CallbackReportCancel:
		return callbackAction{verb: verbReportCancel}, true

	case strings.HasPrefix(data, consts.CallbackStats):
		return callbackAction{verb: verbStats, arg: data[len(consts.CallbackStats):]}, true

	case strings.HasPrefix(data, consts.CallbackSelect):
		return callbackAction{verb: verbSelect, url: data[len(consts.CallbackSelect):]}, true

	case strings.HasPrefix(data, consts.CallbackContent),
		strings.HasPrefix(data, consts.CallbackQuality),
		strings.HasPrefix(data, consts.CallbackAudio):
		parts := strings.SplitN(data, "_", 3)
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return callbackAction{}, false
		}
		return callbackAction{verb: parts[0], arg: parts[1], url: parts[2]}, true
	}

	return callbackAction{}, false
}
