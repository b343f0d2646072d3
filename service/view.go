package service

import (
	"bitwise74/finance-api/model"
	"time"
)

// UserView is the only shape a user leaves the service in
type UserView struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

func NewUserView(u *model.User) UserView {
	return UserView{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		IsVerified: u.Account.IsVerified,
	}
}

// Registration is the result of a successful sign up. ActivationToken is
// handed to the notifier and must not be sent back to the client.
type Registration struct {
	User            UserView
	ActivationToken string
}

// Session is a freshly minted token pair. User is only set on login.
type Session struct {
	User             *UserView
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}
