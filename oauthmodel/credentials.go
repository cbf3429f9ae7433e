package oauthmodel

// Credentials identify a Toolshop account. They are sent as the body of POST /users/login.
type Credentials struct {
	// Email is the account login.
	// Example: "admin@practicesoftwaretesting.com"
	Email string `json:"email"`

	// Password is the plain text password.
	// Security: Never log or expose this value
	Password string `json:"password"`
}

// IsZero reports whether neither field is set.
func (c Credentials) IsZero() bool {
	return c.Email == "" && c.Password == ""
}

// String masks the password so credentials can be logged.
func (c Credentials) String() string {
	return c.Email + ":****"
}
