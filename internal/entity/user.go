package entity

// UserLoginData is the claim set carried by access tokens issued by the
// chat-bot surface. This service only validates tokens; it never issues
// them.
type UserLoginData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}
