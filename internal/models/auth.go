package models

// RegisterRequest holds a new user's details. Media URLs are resolved by
// the handler before the service sees the request.
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3"`
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"fullName" validate:"required"`
	Password   string `json:"password" validate:"required,min=6"`
	Avatar     string `json:"-" validate:"required"`
	CoverImage string `json:"-"`
}

// LoginRequest holds credentials for authenticating a user. Either
// username or email identifies the account; at least one is required.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// Identifier returns the account lookup value, preferring username.
func (r LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// TokenPair is an issued access/refresh token couple.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse returns the authenticated user along with the pair.
type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// ChangePasswordRequest payload for updating the password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}
