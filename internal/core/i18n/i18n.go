package i18n

import (
	"embed"
	"fmt"
	"sync"

	"github.com/guiyumin/sharetext/internal/core/extractor"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localesFS embed.FS

// Translations holds all translation strings organized by section
type Translations struct {
	Download DownloadTranslations `yaml:"download"`
	Pipeline PipelineTranslations `yaml:"pipeline"`
	Parse    ParseTranslations    `yaml:"parse"`
	Errors   ErrorTranslations    `yaml:"errors"`
	Guide    GuideTranslations    `yaml:"guide"`
}

type DownloadTranslations struct {
	Downloading string `yaml:"downloading"`
	Completed   string `yaml:"completed"`
	Failed      string `yaml:"failed"`
	Speed       string `yaml:"speed"`
	ETA         string `yaml:"eta"`
	Elapsed     string `yaml:"elapsed"`
	AvgSpeed    string `yaml:"avg_speed"`
	FileSaved   string `yaml:"file_saved"`
}

// PipelineTranslations labels the media-to-text stages
type PipelineTranslations struct {
	Parsing         string `yaml:"parsing"`
	Downloading     string `yaml:"downloading"`
	AudioExtracting string `yaml:"audio_extracting"`
	Transcribing    string `yaml:"transcribing"`
	Summarizing     string `yaml:"summarizing"`
	Done            string `yaml:"done"`
	Failed          string `yaml:"failed"`
}

type ParseTranslations struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Video       string `yaml:"video"`
	Cover       string `yaml:"cover"`
	Music       string `yaml:"music"`
	Images      string `yaml:"images"`
	LivePhoto   string `yaml:"live_photo"`
	Platform    string `yaml:"platform"`
	Supported   string `yaml:"supported"`
	Unsupported string `yaml:"unsupported"`
	Transcript  string `yaml:"transcript"`
	Summary     string `yaml:"summary"`
	Saved       string `yaml:"saved"`
}

// ErrorTranslations maps each error kind to a user-facing message
type ErrorTranslations struct {
	UnsupportedPlatform     string `yaml:"unsupported_platform"`
	UnsupportedOperation    string `yaml:"unsupported_operation"`
	NoURLFound              string `yaml:"no_url_found"`
	InvalidInput            string `yaml:"invalid_input"`
	HTTPFailure             string `yaml:"http_failure"`
	EmptyPageContent        string `yaml:"empty_page_content"`
	ContentStructureChanged string `yaml:"content_structure_changed"`
	ExpiredLink             string `yaml:"expired_link"`
	DecodeFailure           string `yaml:"decode_failure"`
	DownloadFailure         string `yaml:"download_failure"`
	TranscodeFailure        string `yaml:"transcode_failure"`
	TranscriptionAPIFailure string `yaml:"transcription_api_failure"`
	MissingCredential       string `yaml:"missing_credential"`
	Unknown                 string `yaml:"unknown"`
}

type GuideTranslations struct {
	Usage          string `yaml:"usage"`
	TextExtraction string `yaml:"text_extraction"`
}

var (
	translationsCache = make(map[string]*Translations)
	cacheMutex        sync.RWMutex
	defaultLang       = "zh"
)

// SupportedLanguages returns all available language codes
var SupportedLanguages = []struct {
	Code string
	Name string
}{
	{"zh", "中文"},
	{"en", "English"},
}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) *Translations {
	cacheMutex.RLock()
	if t, ok := translationsCache[lang]; ok {
		cacheMutex.RUnlock()
		return t
	}
	cacheMutex.RUnlock()

	t, err := loadTranslations(lang)
	if err != nil {
		if lang != defaultLang {
			return GetTranslations(defaultLang)
		}
		return &Translations{}
	}

	cacheMutex.Lock()
	translationsCache[lang] = t
	cacheMutex.Unlock()

	return t
}

func loadTranslations(lang string) (*Translations, error) {
	filename := fmt.Sprintf("locales/%s.yml", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var t Translations
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// T is a convenience function for getting translations
func T(lang string) *Translations {
	return GetTranslations(lang)
}

// ErrorMessage returns the localized message for kind
func (t *Translations) ErrorMessage(kind extractor.Kind) string {
	e := t.Errors
	switch kind {
	case extractor.KindUnsupportedPlatform:
		return e.UnsupportedPlatform
	case extractor.KindUnsupportedOperation:
		return e.UnsupportedOperation
	case extractor.KindNoURLFound:
		return e.NoURLFound
	case extractor.KindInvalidInput:
		return e.InvalidInput
	case extractor.KindHTTPFailure:
		return e.HTTPFailure
	case extractor.KindEmptyPageContent:
		return e.EmptyPageContent
	case extractor.KindContentStructureChanged:
		return e.ContentStructureChanged
	case extractor.KindExpiredLink:
		return e.ExpiredLink
	case extractor.KindDecodeFailure:
		return e.DecodeFailure
	case extractor.KindDownloadFailure:
		return e.DownloadFailure
	case extractor.KindTranscodeFailure:
		return e.TranscodeFailure
	case extractor.KindTranscriptionAPIFailure:
		return e.TranscriptionAPIFailure
	case extractor.KindMissingCredential:
		return e.MissingCredential
	}
	return e.Unknown
}
