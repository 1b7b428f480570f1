package course

import (
	validator "github.com/go-playground/validator/v10"

	"github.com/kayembe/elimu/core"
)

const (
	videoURLTag     = "video_url_required"
	videoURLText    = "A video URL is required for video lectures"
	textContentTag  = "text_content_required"
	textContentText = "Content is required for topic lectures"
	pdfURLTag       = "pdf_url_required"
	pdfURLText      = "A PDF URL is required for PDF lectures"
)

func init() {
	core.Validate.RegisterStructValidation(lectureStructValidation, NewLecture{})
	core.RegisterCustomTranslation(videoURLTag, videoURLText)
	core.RegisterCustomTranslation(textContentTag, textContentText)
	core.RegisterCustomTranslation(pdfURLTag, pdfURLText)
}

// lectureStructValidation ensures each lecture carries the payload its type needs.
func lectureStructValidation(sl validator.StructLevel) {
	nl := sl.Current().Interface().(NewLecture)
	switch nl.Type {
	case LectureVideo:
		if nl.VideoURL == "" {
			sl.ReportError(nl.VideoURL, "video_url", "VideoURL", videoURLTag, "")
		}
	case LectureTopicContent:
		if nl.TextContent == "" {
			sl.ReportError(nl.TextContent, "text_content", "TextContent", textContentTag, "")
		}
	case LecturePDF:
		if nl.PDFURL == "" {
			sl.ReportError(nl.PDFURL, "pdf_url", "PDFURL", pdfURLTag, "")
		}
	}
}

// Validate cleans and validates the wizard payload. Publishing additionally
// requires at least one section with at least one lecture; drafts may be saved
// with an empty curriculum.
func (nc *NewCourse) Validate(publish bool) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}

	if publish {
		var lectureCount int
		for _, sect := range nc.Sections {
			lectureCount += len(sect.Lectures)
		}
		if len(nc.Sections) == 0 || lectureCount == 0 {
			return core.NewFieldError("sections", "A published course needs at least one section with one lecture")
		}
	}
	return nil
}
