package tui

import (
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/utils"
)

func newNotDoneForm(fm *NotDoneFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reason").
				Description("Optional").
				Value(&fm.Reason),
		),
	)
}

func newPostponeForm(fm *PostponeFormModel, now time.Time) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New due date").
				Description("YYYY-MM-DD, today or tomorrow").
				Value(&fm.Date).
				Validate(func(s string) error {
					_, err := utils.ParseDate(s, now)
					return err
				}),
			huh.NewInput().
				Title("Reason").
				Description("Optional").
				Value(&fm.Reason),
		),
	)
}
