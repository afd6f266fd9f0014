package models

type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

type PrivacySettings struct {
	ShowProfile  bool `json:"showProfile"`
	ShowActivity bool `json:"showActivity"`
}

type Settings struct {
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
}

func DefaultSettings() Settings {
	return Settings{
		Notifications: NotificationSettings{Email: true},
		Privacy:       PrivacySettings{ShowProfile: true},
	}
}
