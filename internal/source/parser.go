package source

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	initialDataMarker    = "ytInitialData"
	playerResponseMarker = "ytInitialPlayerResponse"
)

// extractInitialData pulls the ytInitialData JSON object out of a page
func extractInitialData(html string) (map[string]any, error) {
	return extractScriptJSON(html, initialDataMarker)
}

// extractPlayerResponse pulls the ytInitialPlayerResponse JSON object out of a watch page
func extractPlayerResponse(html string) (map[string]any, error) {
	return extractScriptJSON(html, playerResponseMarker)
}

// extractScriptJSON scans script tags for `marker = {...}` and decodes
// the object literal assigned to it.
func extractScriptJSON(html, marker string) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var raw string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, marker)
		if idx < 0 {
			return true
		}
		obj := balancedObject(text[idx:])
		if obj == "" {
			return true
		}
		raw = obj
		return false
	})

	if raw == "" {
		return nil, fmt.Errorf("no %s payload in page", marker)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", marker, err)
	}
	return data, nil
}

// balancedObject returns the first brace-balanced JSON object in s,
// honoring string literals and escapes.
func balancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// parsePlaylistRefs extracts playlist candidates from a search results payload
func parsePlaylistRefs(data map[string]any, baseURL string) []PlaylistRef {
	var refs []PlaylistRef
	seen := make(map[string]bool)

	for _, r := range collectMaps(data, "playlistRenderer") {
		id := stringAt(r, "playlistId")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, PlaylistRef{
			ID:    id,
			Title: textAt(r, "title"),
			URL:   fmt.Sprintf("%s%s?list=%s", baseURL, playlistPath, id),
		})
	}
	return refs
}

// parsePlaylistPage extracts playlist metadata and its ordered video entries
func parsePlaylistPage(data map[string]any, ref PlaylistRef, playlistURL, baseURL string) (RawRecord, []VideoRef) {
	meta := RawRecord{
		"playlist_id":  ref.ID,
		"playlist_url": playlistURL,
	}

	title := ref.Title
	if md, ok := dig(data, "metadata", "playlistMetadataRenderer").(map[string]any); ok {
		if t := stringAt(md, "title"); t != "" {
			title = t
		}
	}
	if title != "" {
		meta["playlist_title"] = title
	}

	var entries []VideoRef
	seen := make(map[string]bool)
	for _, r := range collectMaps(data, "playlistVideoRenderer") {
		id := stringAt(r, "videoId")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		entries = append(entries, VideoRef{
			ID:            id,
			URL:           fmt.Sprintf("%s%s?v=%s", baseURL, watchPath, id),
			PlaylistIndex: len(entries) + 1,
		})
	}
	return meta, entries
}

// parseWatchPage builds the raw metadata record for a single video.
// Fields the page does not carry are left absent, never defaulted.
func parseWatchPage(html, videoURL string) (RawRecord, error) {
	player, err := extractPlayerResponse(html)
	if err != nil {
		return nil, err
	}

	details, _ := player["videoDetails"].(map[string]any)
	if details == nil {
		return nil, fmt.Errorf("no videoDetails in player response")
	}
	micro, _ := dig(player, "microformat", "playerMicroformatRenderer").(map[string]any)

	rec := RawRecord{"url": videoURL}

	putString(rec, "id", stringAt(details, "videoId"))
	putString(rec, "title", stringAt(details, "title"))
	putString(rec, "channel", stringAt(details, "author"))
	putString(rec, "channel_id", stringAt(details, "channelId"))
	putString(rec, "description", stringAt(details, "shortDescription"))

	if id := stringAt(details, "channelId"); id != "" {
		rec["channel_url"] = "https://www.youtube.com/channel/" + id
	}

	putCount(rec, "duration", stringAt(details, "lengthSeconds"))
	putCount(rec, "view_count", stringAt(details, "viewCount"))

	if keywords, ok := details["keywords"].([]any); ok {
		rec["tags"] = keywords
	}

	if embed, ok := dig(player, "playabilityStatus", "playableInEmbed").(bool); ok {
		rec["playable_in_embed"] = embed
	}

	if micro != nil {
		putString(rec, "uploader", stringAt(micro, "ownerChannelName"))
		putCount(rec, "like_count", stringAt(micro, "likeCount"))
		if d := stringAt(micro, "uploadDate"); d != "" {
			rec["upload_date"] = d
		} else if d := stringAt(micro, "publishDate"); d != "" {
			rec["upload_date"] = d
		}
		if c := stringAt(micro, "category"); c != "" {
			rec["categories"] = []any{c}
		}
	}

	return rec, nil
}

// dig walks nested maps along the given keys
func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

// collectMaps walks the whole payload and collects every object stored
// under the given key. Map keys are visited in sorted order so the
// result is stable; entries inside a list keep their list order.
func collectMaps(v any, key string) []map[string]any {
	var found []map[string]any
	switch node := v.(type) {
	case map[string]any:
		if child, ok := node[key].(map[string]any); ok {
			found = append(found, child)
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			found = append(found, collectMaps(node[k], key)...)
		}
	case []any:
		for _, child := range node {
			found = append(found, collectMaps(child, key)...)
		}
	}
	return found
}

// stringAt returns the string value at key, or ""
func stringAt(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// textAt reads YouTube's two text encodings: {simpleText} and {runs:[{text}]}
func textAt(m map[string]any, key string) string {
	obj, ok := m[key].(map[string]any)
	if !ok {
		return ""
	}
	if s := stringAt(obj, "simpleText"); s != "" {
		return s
	}
	if runs, ok := obj["runs"].([]any); ok && len(runs) > 0 {
		if run, ok := runs[0].(map[string]any); ok {
			return stringAt(run, "text")
		}
	}
	return ""
}

// putString sets key only when the value is non-empty
func putString(rec RawRecord, key, value string) {
	if value != "" {
		rec[key] = value
	}
}

// putCount parses a decimal count string and sets key only on success
func putCount(rec RawRecord, key, value string) {
	if value == "" {
		return
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}
	rec[key] = n
}
