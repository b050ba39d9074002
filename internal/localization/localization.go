// Package localization provides the notification message catalog.
// Built-in English and Ukrainian templates cover every fan-out event;
// JSON files in an optional override directory replace individual keys.
package localization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys for notification titles and message templates.
const (
	KeyNewRequestTitle   = "notify.new_request.title"
	KeyNewRequestMsg     = "notify.new_request.message"
	KeyUpdatedTitle      = "notify.request_updated.title"
	KeyUpdatedMsg        = "notify.request_updated.message"
	KeyStatusTitle       = "notify.status_updated.title"
	KeyStatusMsg         = "notify.status_updated.message"
	KeyCompletedTitle    = "notify.request_completed.title"
	KeyCompletedMsg      = "notify.request_completed.message"
	KeyDeletedTitle      = "notify.request_deleted.title"
	KeyDeletedMsg        = "notify.request_deleted.message"
	KeyFilesTitle        = "notify.files_uploaded.title"
	KeyFilesMsg          = "notify.files_uploaded.message"
	KeyCommentTitle      = "notify.new_comment.title"
	KeyCommentMsg        = "notify.new_comment.message"
	KeyAssignedTitle     = "notify.request_assigned.title"
	KeyAssignedMsg       = "notify.request_assigned.message"
)

var defaults = map[string]map[string]string{
	"en": {
		KeyNewRequestTitle: "New Request",
		KeyNewRequestMsg:   "Request %s has been registered.",
		KeyUpdatedTitle:    "Request Updated",
		KeyUpdatedMsg:      "Request %s has been updated.",
		KeyStatusTitle:     "Request Status Updated",
		KeyStatusMsg:       "Request %s status changed to %s.",
		KeyCompletedTitle:  "Request Completed",
		KeyCompletedMsg:    "Request %s has been completed.",
		KeyDeletedTitle:    "Request Deleted",
		KeyDeletedMsg:      "Request %s has been deleted.",
		KeyFilesTitle:      "New Files Uploaded",
		KeyFilesMsg:        "%d new file(s) uploaded to request %s.",
		KeyCommentTitle:    "New Comment",
		KeyCommentMsg:      "New comment on request %s.",
		KeyAssignedTitle:   "Request Assigned",
		KeyAssignedMsg:     "Request %s has been assigned to you.",
	},
	"uk": {
		KeyNewRequestTitle: "Новий запит",
		KeyNewRequestMsg:   "Запит %s зареєстровано.",
		KeyUpdatedTitle:    "Запит оновлено",
		KeyUpdatedMsg:      "Запит %s було оновлено.",
		KeyStatusTitle:     "Статус запиту оновлено",
		KeyStatusMsg:       "Статус запиту %s змінено на %s.",
		KeyCompletedTitle:  "Запит виконано",
		KeyCompletedMsg:    "Запит %s виконано.",
		KeyDeletedTitle:    "Запит видалено",
		KeyDeletedMsg:      "Запит %s було видалено.",
		KeyFilesTitle:      "Завантажено нові файли",
		KeyFilesMsg:        "Завантажено %d нових файлів до запиту %s.",
		KeyCommentTitle:    "Новий коментар",
		KeyCommentMsg:      "Новий коментар до запиту %s.",
		KeyAssignedTitle:   "Запит призначено",
		KeyAssignedMsg:     "Запит %s призначено вам.",
	},
}

// Localizer resolves message keys to localized strings.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer returns a Localizer preloaded with the built-in catalog.
func NewLocalizer() *Localizer {
	l := &Localizer{translations: make(map[string]map[string]string)}
	for lang, msgs := range defaults {
		copied := make(map[string]string, len(msgs))
		for k, v := range msgs {
			copied[k] = v
		}
		l.translations[lang] = copied
	}
	return l
}

// LoadOverrides merges JSON files from dir on top of the built-in catalog.
// Files are named by language code, e.g. "uk.json".
func (l *Localizer) LoadOverrides(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read localization directory: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var overrides map[string]string
		if err := json.Unmarshal(data, &overrides); err != nil {
			return fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		if l.translations[lang] == nil {
			l.translations[lang] = make(map[string]string)
		}
		for k, v := range overrides {
			l.translations[lang][k] = v
		}
	}
	return nil
}

// GetString returns the localized string for a key and language.
// Falls back to English, then to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if msgs, ok := l.translations[lang]; ok {
		if value, ok := msgs[key]; ok {
			return value
		}
	}
	if lang != "en" {
		if msgs, ok := l.translations["en"]; ok {
			if value, ok := msgs[key]; ok {
				return value
			}
		}
	}
	return key
}

// Format resolves a key and interpolates args into its template.
func (l *Localizer) Format(lang, key string, args ...interface{}) string {
	tmpl := l.GetString(lang, key)
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
