package record

import "strings"

// DecodePublic normalizes the polymorphic visibility field. recognized is
// false when the encoding is one we have never seen upstream produce; the
// caller decides whether that is worth a log line. The decode itself is
// total: unrecognized encodings are private.
//
// Precedence: absent → private; list → public iff non-empty; bool → as-is;
// string → public iff trimmed, case-folded value is yes/true/1/on.
func DecodePublic(f Fields, name string) (public bool, recognized bool) {
	v, ok := f[name]
	if !ok {
		return false, true
	}
	switch val := v.(type) {
	case []any:
		return len(val) > 0, true
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "yes", "true", "1", "on":
			return true, true
		default:
			return false, true
		}
	default:
		return false, false
	}
}

// Thumbnail is one rendition of an attachment.
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// Attachment is the nested-object shape upstream uses for image fields.
type Attachment struct {
	URL        string
	Thumbnails map[string]Thumbnail
}

// DecodeAttachment reads the first attachment of the named field.
// Upstream delivers attachments as a list of objects; a bare object is
// tolerated as well.
func DecodeAttachment(f Fields, name string) (Attachment, bool) {
	v, ok := f[name]
	if !ok {
		return Attachment{}, false
	}
	switch val := v.(type) {
	case []any:
		if len(val) == 0 {
			return Attachment{}, false
		}
		obj, ok := val[0].(map[string]any)
		if !ok {
			return Attachment{}, false
		}
		return decodeAttachmentObject(obj)
	case map[string]any:
		return decodeAttachmentObject(val)
	default:
		return Attachment{}, false
	}
}

func decodeAttachmentObject(obj map[string]any) (Attachment, bool) {
	url, _ := obj["url"].(string)
	if url == "" {
		return Attachment{}, false
	}
	att := Attachment{URL: url}
	if thumbs, ok := obj["thumbnails"].(map[string]any); ok {
		att.Thumbnails = make(map[string]Thumbnail, len(thumbs))
		for size, raw := range thumbs {
			t, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			thumb := Thumbnail{}
			thumb.URL, _ = t["url"].(string)
			if w, ok := t["width"].(float64); ok {
				thumb.Width = int(w)
			}
			if h, ok := t["height"].(float64); ok {
				thumb.Height = int(h)
			}
			att.Thumbnails[size] = thumb
		}
	}
	return att, true
}
