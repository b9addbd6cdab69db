package consts

import "regexp"

// Platform names used in statistics events and retry configuration
const (
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
)

// URL patterns for supported platforms. Matching order matters:
// Instagram first, then TikTok, then YouTube, because a message may
// contain text that loosely matches more than one pattern.
var (
	InstagramRegex = regexp.MustCompile(`(https?://)?(www\.)?instagram\.com/(p|reel|reels|tv|stories)/\S+`)
	TikTokRegex    = regexp.MustCompile(`(https?://)?(www\.|vm\.|vt\.)?(tiktok\.com)/(\S+)`)
	YouTubeRegex   = regexp.MustCompile(`(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/(watch\?v=|embed/|v/|shorts/|.+\?v=)?([^&=%\?]{11})`)
)

// YouTubeShortsPath marks the short-form sub-path of YouTube URLs,
// which skips quality selection
const YouTubeShortsPath = "/shorts/"
