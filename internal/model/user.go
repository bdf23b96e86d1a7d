package model

const GuestUserID = "guest"

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Symptoms     string `json:"symptoms"`
	Diseases     string `json:"diseases"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}

func (u *User) HealthProfile() HealthProfile {
	if u == nil {
		return HealthProfile{}
	}
	return HealthProfile{Symptoms: u.Symptoms, Diseases: u.Diseases}
}

// HealthProfile holds comma separated free-text terms.
type HealthProfile struct {
	Symptoms string `json:"symptoms"`
	Diseases string `json:"diseases"`
}
