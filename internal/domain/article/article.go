// Package article describes the encyclopedia article documents the reports
// read. Articles are loaded upstream; nothing in this module writes them.
package article

import "github.com/kailas-cloud/wikirank/internal/db"

// Document field names as stored in the collection.
const (
	FieldPageID        = "page_id"
	FieldTitle         = "title"
	FieldLang          = "lang"
	FieldQuality       = "quality"
	FieldQualityBin    = "quality_bin"
	FieldTitleLenBin   = "title_len_bin"
	FieldIsHighQuality = "is_high_quality"
)

// Article is a single annotated encyclopedia article.
type Article struct {
	PageID        int64
	Title         string
	Lang          string
	Quality       float64
	QualityBin    int
	TitleLenBin   int
	IsHighQuality int
}

// New creates an Article and derives its bins and high-quality flag.
func New(pageID int64, title, lang string, quality float64) Article {
	return Article{
		PageID:        pageID,
		Title:         title,
		Lang:          lang,
		Quality:       quality,
		QualityBin:    QualityBin(quality),
		TitleLenBin:   TitleLenBin(TitleLength(title)),
		IsHighQuality: IsHighQuality(quality),
	}
}

// Fields returns the article as a field map keyed by document field name.
func (a Article) Fields() map[string]any {
	return map[string]any{
		FieldPageID:        a.PageID,
		FieldTitle:         a.Title,
		FieldLang:          a.Lang,
		FieldQuality:       a.Quality,
		FieldQualityBin:    int64(a.QualityBin),
		FieldTitleLenBin:   int64(a.TitleLenBin),
		FieldIsHighQuality: int64(a.IsHighQuality),
	}
}

// Schema tells the key-value stores how each article hash field decodes.
var Schema = db.Schema{
	FieldPageID:        db.FieldInteger,
	FieldTitle:         db.FieldText,
	FieldLang:          db.FieldTag,
	FieldQuality:       db.FieldNumeric,
	FieldQualityBin:    db.FieldInteger,
	FieldTitleLenBin:   db.FieldInteger,
	FieldIsHighQuality: db.FieldInteger,
}
