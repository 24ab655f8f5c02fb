package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moodgram/moodgram/server/timezone"
	"github.com/moodgram/moodgram/store"
)

type userSettingResponse struct {
	UserID        string `json:"userId"`
	AIEnabled     bool   `json:"aiEnabled"`
	ReminderTime  string `json:"reminderTime"`
	SearchAllowed bool   `json:"searchAllowed"`
}

type updateUserSettingRequest struct {
	AIEnabled     *bool   `json:"aiEnabled"`
	ReminderTime  *string `json:"reminderTime"`
	SearchAllowed *bool   `json:"searchAllowed"`
}

// updateUserSetting applies a partial settings update, creating the user
// on first contact.
func (s *APIV1Service) updateUserSetting(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("id")

	request := &updateUserSettingRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.ReminderTime != nil {
		if _, _, err := timezone.ParseTimeOfDay(*request.ReminderTime); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "reminderTime must be HH:MM")
		}
	}

	if _, err := s.Store.GetOrCreateUser(ctx, userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}

	setting, err := s.Store.UpdateUserSetting(ctx, &store.UpdateUserSetting{
		UserID:        userID,
		AIEnabled:     request.AIEnabled,
		ReminderTime:  request.ReminderTime,
		SearchAllowed: request.SearchAllowed,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update setting")
	}

	return c.JSON(http.StatusOK, &userSettingResponse{
		UserID:        setting.UserID,
		AIEnabled:     setting.AIEnabled,
		ReminderTime:  setting.ReminderTime,
		SearchAllowed: setting.SearchAllowed,
	})
}
