package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// DefaultPublisherMarks are imprint names commonly printed on Japanese comic
// covers and spines. Matching is case-insensitive and by substring.
var DefaultPublisherMarks = []string{
	"shueisha", "集英社",
	"kodansha", "講談社",
	"shogakukan", "小学館",
	"kadokawa", "角川",
	"square enix", "スクウェア・エニックス",
	"akita shoten", "秋田書店",
	"hakusensha", "白泉社",
	"futabasha", "双葉社",
	"jump comics", "ジャンプコミックス",
	"コミックス",
}

var (
	pageNumberRe   = regexp.MustCompile(`^(?:p\.?\s*)?\d{1,4}$`)
	bareNumberRe   = regexp.MustCompile(`^\d{1,4}$`)
	volumeLineRe   = regexp.MustCompile(`^(?:(?:vol(?:ume)?\.?|#|no\.)\s*\d+|第?\s*\d+\s*巻)$`)
	trailingVolRe  = regexp.MustCompile(`(?i)\s*(?:(?:vol(?:ume)?\.?|#)\s*\d+|第?\s*\d+\s*巻)$`)
	copyrightRe    = regexp.MustCompile(`^(?:\(c\)|copyright\b)|©|all rights reserved`)
	isbnLineRe     = regexp.MustCompile(`^isbn`)
	volumeSearchRe = regexp.MustCompile(`(?i)(?:\bvol(?:ume)?\.?\s*(\d+))|(?:第?\s*(\d+)\s*巻)`)
)

// TitleParser keeps only the line most likely to be the title. Page
// numbers, volume markers, copyright and ISBN lines, publisher imprints and
// furigana lines are dropped, and a volume suffix on the title line itself
// is removed. A bare number such as "1984" is only taken as the title when
// no other line survives.
type TitleParser struct {
	PublisherMarks []string
}

// NewTitleParser returns a TitleParser using DefaultPublisherMarks.
func NewTitleParser() *TitleParser {
	return &TitleParser{PublisherMarks: DefaultPublisherMarks}
}

func (p *TitleParser) Parse(_ context.Context, text string) (string, error) {
	lines := cleanLines(text)
	hasKanji := false
	for _, line := range lines {
		if containsHan(line) {
			hasKanji = true
			break
		}
	}

	numberOnly := ""
	for _, line := range lines {
		if numberOnly == "" && bareNumberRe.MatchString(line) {
			numberOnly = line
		}
		if p.isNoise(line, hasKanji) {
			continue
		}
		if title := strings.TrimSpace(trailingVolRe.ReplaceAllString(line, "")); title != "" {
			return title, nil
		}
	}
	return numberOnly, nil
}

func (p *TitleParser) isNoise(line string, hasKanji bool) bool {
	lower := strings.ToLower(line)
	switch {
	case pageNumberRe.MatchString(lower),
		volumeLineRe.MatchString(lower),
		copyrightRe.MatchString(lower),
		isbnLineRe.MatchString(lower):
		return true
	}
	for _, mark := range p.PublisherMarks {
		if mark != "" && strings.Contains(lower, strings.ToLower(mark)) {
			return true
		}
	}
	// Furigana only shows up as a reading aid next to kanji.
	return hasKanji && isHiraganaOnly(line)
}

// DetectVolume finds a volume number such as "vol. 42" or "第3巻" in text.
func DetectVolume(text string) (int, bool) {
	for _, line := range cleanLines(text) {
		m := volumeSearchRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		if n, err := strconv.Atoi(digits); err == nil {
			return n, true
		}
	}
	return 0, false
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func isHiraganaOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == ' ' || r == 'ー' || r == '・' {
			continue
		}
		if !unicode.Is(unicode.Hiragana, r) {
			return false
		}
	}
	return true
}
