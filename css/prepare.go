package css

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// stylesheets lifted from <style> elements often keep their wrappers
	wrappers = [][]byte{
		[]byte("<![CDATA["),
		[]byte("]]>"),
		[]byte("<!--"),
		[]byte("-->"),
	}
)

// prepare brings raw stylesheet bytes to clean UTF-8 text. Text which is not
// valid UTF-8 is assumed to be EUC-KR, the only legacy encoding we see in the
// wild often enough.
func prepare(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	for _, w := range wrappers {
		data = bytes.ReplaceAll(data, w, nil)
	}
	if !utf8.Valid(data) {
		if decoded, err := korean.EUCKR.NewDecoder().Bytes(data); err == nil {
			data = decoded
		}
	}
	return data
}
