package ui

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyEnterURL          = "enter_url"
	KeyPleaseEnterURL    = "please_enter_url"
	KeyBitrate           = "bitrate"
	KeyDownloadDirectory = "download_directory"
	KeyValidating        = "validating"
	KeyFetchingTitle     = "fetching_title"
	KeyReady             = "ready"
	KeyDownloading       = "downloading"
	KeyTranscoding       = "transcoding"
	KeyCompleted         = "completed"
	KeyCancelled         = "cancelled"
	KeyFailed            = "failed"
	KeyInvalidURL        = "invalid_url"
	KeyStopping          = "stopping"
	KeyRetryHint         = "retry_hint"
	KeyDifferentURLHint  = "different_url_hint"
	KeyErrorOpeningFile  = "error_opening_file"
	KeyHelpIdle          = "help_idle"
	KeyHelpReady         = "help_ready"
	KeyHelpActive        = "help_active"
	KeyHelpDone          = "help_done"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		// Use system locale - simplified to English for now
		lang = "en"
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
		"pt": "Português",
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	// English texts
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "YT → MP3",
		KeyEnterURL:          "Enter YouTube URL (https://youtube.com/watch?v=...)",
		KeyPleaseEnterURL:    "Please enter a URL",
		KeyBitrate:           "Bitrate",
		KeyDownloadDirectory: "Save to",
		KeyValidating:        "Checking URL...",
		KeyFetchingTitle:     "Fetching title...",
		KeyReady:             "Ready to download",
		KeyDownloading:       "Downloading",
		KeyTranscoding:       "Converting to MP3",
		KeyCompleted:         "Saved",
		KeyCancelled:         "Cancelled",
		KeyFailed:            "Failed",
		KeyInvalidURL:        "Invalid URL",
		KeyStopping:          "Stopping...",
		KeyRetryHint:         "Press enter to try again",
		KeyDifferentURLHint:  "Enter a different URL",
		KeyErrorOpeningFile:  "Error opening file",
		KeyHelpIdle:          "enter: look up · tab: bitrate · esc: quit",
		KeyHelpReady:         "enter: download · tab: bitrate · esc: quit",
		KeyHelpActive:        "esc: cancel · ctrl+c: quit",
		KeyHelpDone:          "enter: new URL · ctrl+o: show file · esc: quit",
	}

	// Russian texts
	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "YT → MP3",
		KeyEnterURL:          "Введите URL YouTube (https://youtube.com/watch?v=...)",
		KeyPleaseEnterURL:    "Пожалуйста, введите URL",
		KeyBitrate:           "Битрейт",
		KeyDownloadDirectory: "Папка",
		KeyValidating:        "Проверка URL...",
		KeyFetchingTitle:     "Получение названия...",
		KeyReady:             "Готово к загрузке",
		KeyDownloading:       "Загрузка",
		KeyTranscoding:       "Конвертация в MP3",
		KeyCompleted:         "Сохранено",
		KeyCancelled:         "Отменено",
		KeyFailed:            "Ошибка",
		KeyInvalidURL:        "Неверный URL",
		KeyStopping:          "Остановка...",
		KeyRetryHint:         "Нажмите enter, чтобы повторить",
		KeyDifferentURLHint:  "Введите другой URL",
		KeyErrorOpeningFile:  "Ошибка открытия файла",
		KeyHelpIdle:          "enter: найти · tab: битрейт · esc: выход",
		KeyHelpReady:         "enter: скачать · tab: битрейт · esc: выход",
		KeyHelpActive:        "esc: отмена · ctrl+c: выход",
		KeyHelpDone:          "enter: новый URL · ctrl+o: показать файл · esc: выход",
	}

	// Portuguese texts
	l.texts["pt"] = map[string]string{
		KeyAppTitle:          "YT → MP3",
		KeyEnterURL:          "Digite URL do YouTube (https://youtube.com/watch?v=...)",
		KeyPleaseEnterURL:    "Por favor, digite uma URL",
		KeyBitrate:           "Taxa de bits",
		KeyDownloadDirectory: "Salvar em",
		KeyValidating:        "Verificando URL...",
		KeyFetchingTitle:     "Obtendo título...",
		KeyReady:             "Pronto para baixar",
		KeyDownloading:       "Baixando",
		KeyTranscoding:       "Convertendo para MP3",
		KeyCompleted:         "Salvo",
		KeyCancelled:         "Cancelado",
		KeyFailed:            "Falhou",
		KeyInvalidURL:        "URL inválida",
		KeyStopping:          "Parando...",
		KeyRetryHint:         "Pressione enter para tentar novamente",
		KeyDifferentURLHint:  "Digite uma URL diferente",
		KeyErrorOpeningFile:  "Erro ao abrir arquivo",
		KeyHelpIdle:          "enter: buscar · tab: taxa · esc: sair",
		KeyHelpReady:         "enter: baixar · tab: taxa · esc: sair",
		KeyHelpActive:        "esc: cancelar · ctrl+c: sair",
		KeyHelpDone:          "enter: nova URL · ctrl+o: mostrar arquivo · esc: sair",
	}
}
