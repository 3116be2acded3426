package audit

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// Logger пишет события безопасности в append-only файл, по одному
// JSON-объекту на строку. Отказ записи не мешает обработке запроса.
type Logger struct {
	mu   sync.Mutex
	path string
}

type entry struct {
	Timestamp string         `json:"timestamp"`
	Action    string         `json:"action"`
	Subject   string         `json:"subject"`
	Details   map[string]any `json:"details,omitempty"`
}

func New(path string) *Logger {
	if path == "" {
		path = "audit.log"
	}
	return &Logger{path: path}
}

// Log фиксирует событие. Безопасен при nil-получателе, чтобы аудит
// можно было не настраивать в тестах.
func (l *Logger) Log(action, subject string, details map[string]any) {
	if l == nil {
		return
	}

	data, err := json.Marshal(entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Action:    action,
		Subject:   subject,
		Details:   details,
	})
	if err != nil {
		log.Printf("ошибка сериализации записи аудита: %v", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("ошибка открытия файла аудита: %v", err)
		return
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		log.Printf("ошибка записи в файл аудита: %v", err)
	}
}
