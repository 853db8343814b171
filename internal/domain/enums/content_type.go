package enums

import "strings"

type ContentType string

const (
	ContentTypeMusic      ContentType = "music"
	ContentTypeAlbum      ContentType = "album"
	ContentTypePodcast    ContentType = "podcast"
	ContentTypeComment    ContentType = "comment"
	ContentTypeForumTopic ContentType = "forum_topic"
	ContentTypeForumReply ContentType = "forum_reply"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeMusic, ContentTypeAlbum, ContentTypePodcast, ContentTypeComment, ContentTypeForumTopic, ContentTypeForumReply:
		return true
	}
	return false
}

func ParseContentType(value string) (ContentType, bool) {
	t := ContentType(strings.ToLower(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}
