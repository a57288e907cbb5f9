package dto

type SignupDTO struct {
	ID       string `json:"id"       validate:"required,min=2,max=100,loginid"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Nickname string `json:"nickname" validate:"max=100"`
	// Username is accepted as an alias for nickname; nickname wins when both are set.
	Username string `json:"username"    validate:"max=100"`
	// TermsAgreed is accepted for client compatibility and not stored.
	TermsAgreed *bool `json:"termsAgreed"`
}

type LoginDTO struct {
	ID       string `json:"id"       validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type CrawlDTO struct {
	URL      string `json:"url"      validate:"required,url"`
	Selector string `json:"selector"`
}
