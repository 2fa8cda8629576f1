package dashboard

import (
	"errors"

	"github.com/ruslano69/penguinserve/pkg/penguins"
	"github.com/ruslano69/penguinserve/pkg/warehouse"
)

// Stage - этап конвейера, на котором произошел отказ
type Stage string

const (
	StageConnect Stage = "connect"
	StageLoad    Stage = "load"
	StageRender  Stage = "render"
)

// LoadError - любой отказ конвейера. Для пользователя все этапы равнозначны:
// "данные недоступны"; Stage нужен только логам и метрикам.
type LoadError struct {
	Stage Stage
	Err   error
}

func (e *LoadError) Error() string {
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// AsLoadError приводит ошибку к *LoadError; stage - этап по умолчанию
func AsLoadError(err error, stage Stage) *LoadError {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	var ce *penguins.ConnectError
	if errors.As(err, &ce) {
		stage = StageConnect
	}
	return &LoadError{Stage: stage, Err: err}
}

// Result - результат загрузки данных для одного запроса
type Result struct {
	Table *penguins.Table
	Err   *LoadError
}

// OK сообщает об успешной загрузке
func (r Result) OK() bool {
	return r.Err == nil && r.Table != nil
}

// Diagnostics - текст страницы ошибки
type Diagnostics struct {
	Message        string   `json:"message"`
	ChecklistTitle string   `json:"checklist_title,omitempty"`
	Checklist      []string `json:"checklist,omitempty"`
	Hint           string   `json:"hint"`
}

// Тексты страницы ошибки
const (
	awsChecklistTitle = "AWS Workload Identity Check:"
	connectionHint    = "Please check your database connection and try again."
)

var awsChecklist = []string{
	"Is the instance role attached to the App Runner service?",
	"Is Snowflake WIDF configured for this role?",
	"Can the VPC reach Snowflake? (Check egress/PrivateLink settings)",
}

// Diagnose строит статическую диагностику: сообщение об ошибке, чек-лист
// только для режима AWS и общую подсказку
func Diagnose(mode warehouse.Mode, err error) Diagnostics {
	d := Diagnostics{
		Message: "Failed to load data: " + err.Error(),
		Hint:    connectionHint,
	}
	if mode == warehouse.ModeAWS {
		d.ChecklistTitle = awsChecklistTitle
		d.Checklist = append([]string(nil), awsChecklist...)
	}
	return d
}
