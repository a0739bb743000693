package newsapi

// UserProfile is the registered-user record owned by the news backend.
type UserProfile struct {
	TgID       int64    `json:"tg_id"`
	Categories []string `json:"categories"`
	FullName   string   `json:"full_name"`
	Email      *string  `json:"email"`
	CreatedAt  string   `json:"created_at,omitempty"`
}

// UserInfo is the answer of GET /api/user/info.
type UserInfo struct {
	Exists bool         `json:"exists"`
	User   *UserProfile `json:"user,omitempty"`
}

type SaveUserRequest struct {
	TgID       int64    `json:"tg_id"`
	Categories []string `json:"categories"`
	FullName   string   `json:"full_name"`
	Email      *string  `json:"email"`
}

type SaveUserResponse struct {
	Success         bool     `json:"success"`
	CategoriesCount int      `json:"categories_count"`
	Categories      []string `json:"categories"`
	FullName        string   `json:"full_name"`
	Email           *string  `json:"email"`
}

// UpdateUserRequest is a partial profile; nil fields are left untouched.
type UpdateUserRequest struct {
	Categories []string `json:"categories,omitempty"`
	FullName   *string  `json:"full_name,omitempty"`
	Email      *string  `json:"email,omitempty"`
}

type UpdatedFields struct {
	CategoriesUpdated bool `json:"categories_updated"`
	FullNameUpdated   bool `json:"full_name_updated"`
	EmailUpdated      bool `json:"email_updated"`
}

type UpdateUserResponse struct {
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	UpdatedFields UpdatedFields `json:"updated_fields"`
	User          *UserProfile  `json:"user,omitempty"`
}

type SupportRequest struct {
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Message   string `json:"message"`
}

type SupportResponse struct {
	Success   bool   `json:"success"`
	RequestID int64  `json:"request_id"`
	Message   string `json:"message"`
}

type NewsItem struct {
	ID        int64  `json:"id"`
	Type      string `json:"type,omitempty"`
	Text      string `json:"text"`
	Link      string `json:"link"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at"`
}

// NewsFeed is the answer of GET /api/news.
type NewsFeed struct {
	Channel string     `json:"channel"`
	Count   int        `json:"count"`
	Items   []NewsItem `json:"items"`
}
