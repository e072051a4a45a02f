package resume

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist or belongs to another owner.
var ErrNotFound = errors.New("resume not found")

// PersonalInfo содержит контактный блок резюме.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Summary  string `json:"summary"`
}

type Experience struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type Education struct {
	School         string `json:"school"`
	Degree         string `json:"degree"`
	Field          string `json:"field"`
	GraduationDate string `json:"graduationDate"`
}

// StructuredResume это нормализованное представление резюме.
// Отсутствующие поля всегда пустые строки и пустые слайсы, никогда не null.
type StructuredResume struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	Skills       []string     `json:"skills"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record хранится в БД по каждому загруженному резюме.
type Record struct {
	ID         uuid.UUID        `json:"id"`
	UserID     uuid.UUID        `json:"userId"`
	FileName   string           `json:"fileName"`
	FilePath   string           `json:"filePath"`
	FileURL    string           `json:"fileUrl"`
	FileType   string           `json:"fileType"`
	FileSize   int64            `json:"fileSize"`
	ParsedData StructuredResume `json:"parsedData"`
	RawText    string           `json:"rawText,omitempty"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// StoredFile is a durable reference to an object in the file store.
type StoredFile struct {
	Key  string
	URL  string
	Type string
	Size int64
}

// NewRecord builds a completed record for owner referencing file.
func NewRecord(owner uuid.UUID, fileName string, file StoredFile, data StructuredResume, rawText string, now time.Time) Record {
	return Record{
		ID:         uuid.New(),
		UserID:     owner,
		FileName:   fileName,
		FilePath:   file.Key,
		FileURL:    file.URL,
		FileType:   file.Type,
		FileSize:   file.Size,
		ParsedData: data.normalized(),
		RawText:    rawText,
		Status:     StatusCompleted,
		CreatedAt:  now.UTC(),
	}
}
