package dataset

// Sample is one labelled photo in an evaluation dataset.
type Sample struct {
	ID       string `json:"id" parquet:"id"`
	PhotoURL string `json:"photo_url" parquet:"photo_url"`
	// OCRText, when present, is used instead of running OCR on PhotoURL.
	OCRText       string `json:"ocr_text" parquet:"ocr_text"`
	ExpectedTitle string `json:"expected_title" parquet:"expected_title"`
}

// HasInput reports whether the sample gives the pipeline something to work
// from.
func (s *Sample) HasInput() bool {
	return s.PhotoURL != "" || s.OCRText != ""
}

// Key identifies the sample in results, falling back to the photo URL.
func (s *Sample) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.PhotoURL
}
