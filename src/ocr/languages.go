package ocr

import (
	"fmt"

	"golang.org/x/text/language"
)

const defaultTesseractLanguage = "eng"

// TesseractLanguages maps BCP-47 tags to tesseract traineddata names.
// Unparseable tags are an error; an empty list yields English.
func TesseractLanguages(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, raw := range tags {
		tag, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid language tag %q: %w", raw, err)
		}
		code := tesseractCode(tag)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	if len(out) == 0 {
		out = append(out, defaultTesseractLanguage)
	}
	return out, nil
}

func tesseractCode(tag language.Tag) string {
	base, _ := tag.Base()
	if base.String() == "zh" {
		script, _ := tag.Script()
		if script.String() == "Hant" {
			return "chi_tra"
		}
		return "chi_sim"
	}
	return base.ISO3()
}
