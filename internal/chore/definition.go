package chore

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/validate"
)

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var taskValidate *validate.Validator

func init() {
	taskValidate = validate.New()
	taskValidate.Register("hhmm", func(fl validator.FieldLevel) bool {
		_, _, ok := ParseClock(fl.Field().String())
		return ok
	}, "must be in HH:MM format (00:00-23:59)")
	taskValidate.Register("weekday", func(fl validator.FieldLevel) bool {
		return IsWeekday(fl.Field().String())
	}, "must be a day name: "+strings.Join(weekdayNames, ", "))
	taskValidate.Register("schedule", func(fl validator.FieldLevel) bool {
		return model.ScheduleType(fl.Field().String()).Valid()
	}, `must be "daily", "weekly", or "recurring"`)
}

// TaskDefinition is the editable part of a task template.
type TaskDefinition struct {
	Name                      string             `json:"name" yaml:"name" validate:"required,max=100"`
	Description               string             `json:"description" yaml:"description" validate:"max=500"`
	BasePoints                int                `json:"base_points" yaml:"base_points" validate:"min=1,max=1000"`
	AssignedRoleID            *int64             `json:"assigned_role_id,omitempty" yaml:"assigned_role_id"`
	ScheduleType              model.ScheduleType `json:"schedule_type" yaml:"schedule_type" validate:"schedule"`
	DefaultDueTime            string             `json:"default_due_time" yaml:"default_due_time"`
	RecurrenceMinDays         *int               `json:"recurrence_min_days,omitempty" yaml:"recurrence_min_days" validate:"omitempty,min=1,max=365"`
	RecurrenceMaxDays         *int               `json:"recurrence_max_days,omitempty" yaml:"recurrence_max_days" validate:"omitempty,min=1,max=365"`
	RequiresPhotoVerification bool               `json:"requires_photo_verification" yaml:"requires_photo_verification"`
}

// Validate checks field ranges and the schedule-dependent rules for the
// due time and recurrence window.
func (d *TaskDefinition) Validate() error {
	if err := taskValidate.Struct(d); err != nil {
		return err
	}

	switch d.ScheduleType {
	case model.ScheduleDaily:
		return taskValidate.Var("default_due_time", d.DefaultDueTime, "hhmm")
	case model.ScheduleWeekly:
		return taskValidate.Var("default_due_time", d.DefaultDueTime, "weekday")
	case model.ScheduleRecurring:
		if d.RecurrenceMinDays == nil || d.RecurrenceMaxDays == nil {
			return apperr.Validationf("recurring tasks need both recurrence_min_days and recurrence_max_days")
		}
		if *d.RecurrenceMinDays > *d.RecurrenceMaxDays {
			return apperr.Validationf("recurrence_min_days must be less than or equal to recurrence_max_days")
		}
	}
	return nil
}

// Task converts a validated definition into a template.
func (d *TaskDefinition) Task() model.Task {
	return model.Task{
		Name:                      d.Name,
		Description:               d.Description,
		BasePoints:                d.BasePoints,
		AssignedRoleID:            d.AssignedRoleID,
		ScheduleType:              d.ScheduleType,
		DefaultDueTime:            d.DefaultDueTime,
		RecurrenceMinDays:         d.RecurrenceMinDays,
		RecurrenceMaxDays:         d.RecurrenceMaxDays,
		RequiresPhotoVerification: d.RequiresPhotoVerification,
	}
}

var scheduleAliases = map[string]model.ScheduleType{
	"daily":         model.ScheduleDaily,
	"täglich":       model.ScheduleDaily,
	"taeglich":      model.ScheduleDaily,
	"weekly":        model.ScheduleWeekly,
	"wöchentlich":   model.ScheduleWeekly,
	"woechentlich":  model.ScheduleWeekly,
	"recurring":     model.ScheduleRecurring,
	"wiederkehrend": model.ScheduleRecurring,
}

var weekdayAliases = map[string]string{
	"montag":     "Monday",
	"dienstag":   "Tuesday",
	"mittwoch":   "Wednesday",
	"donnerstag": "Thursday",
	"freitag":    "Friday",
	"samstag":    "Saturday",
	"sonnabend":  "Saturday",
	"sonntag":    "Sunday",
}

// Normalize rewrites loosely written import data into canonical form.
// Schedule names are matched case-insensitively, including German ones.
// Weekday names are canonicalized. A weekly item whose due time is a
// clock time becomes a recurring task with a fixed seven-day window.
func (d *TaskDefinition) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.DefaultDueTime = strings.TrimSpace(d.DefaultDueTime)

	if st, ok := scheduleAliases[strings.ToLower(strings.TrimSpace(string(d.ScheduleType)))]; ok {
		d.ScheduleType = st
	}

	if d.ScheduleType != model.ScheduleWeekly {
		return
	}

	lower := strings.ToLower(d.DefaultDueTime)
	if en, ok := weekdayAliases[lower]; ok {
		d.DefaultDueTime = en
		return
	}
	for _, name := range weekdayNames {
		if strings.ToLower(name) == lower {
			d.DefaultDueTime = name
			return
		}
	}
	if _, _, ok := ParseClock(d.DefaultDueTime); ok {
		minDays, maxDays := 7, 7
		d.ScheduleType = model.ScheduleRecurring
		d.RecurrenceMinDays = &minDays
		d.RecurrenceMaxDays = &maxDays
	}
}

// PrepareImport normalizes and validates every item. The first invalid
// item rejects the whole batch.
func PrepareImport(items []TaskDefinition) ([]model.Task, error) {
	if len(items) == 0 {
		return nil, apperr.Validationf("import contains no tasks")
	}
	tasks := make([]model.Task, 0, len(items))
	for i := range items {
		items[i].Normalize()
		if err := items[i].Validate(); err != nil {
			return nil, apperr.Validationf("item %d (%s): %s", i+1, itemLabel(items[i]), err.Error())
		}
		tasks = append(tasks, items[i].Task())
	}
	return tasks, nil
}

func itemLabel(d TaskDefinition) string {
	if d.Name == "" {
		return "unnamed"
	}
	return fmt.Sprintf("%q", d.Name)
}
