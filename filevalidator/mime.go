package filevalidator

// MediaTypeGroup names a family of MIME types usable as a pattern
type MediaTypeGroup string

const (
	AllowAllImages    MediaTypeGroup = "image/*"
	AllowAllDocuments MediaTypeGroup = "document/*"
	AllowAllAudio     MediaTypeGroup = "audio/*"
	AllowAllVideo     MediaTypeGroup = "video/*"
	AllowAll          MediaTypeGroup = "*/*"
)

// mediaTypeGroups lists members of groups that do not correspond to a
// top-level MIME type.
var mediaTypeGroups = map[MediaTypeGroup][]string{
	AllowAllDocuments: {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"text/plain",
		"text/csv",
		"text/rtf",
		"application/rtf",
	},
}

// AddCustomMediaTypeGroupMapping adds MIME types to a media type group.
// It is not safe to call concurrently with pattern parsing.
func AddCustomMediaTypeGroupMapping(group MediaTypeGroup, mimeTypes []string) {
	mediaTypeGroups[group] = append(mediaTypeGroups[group], mimeTypes...)
}
