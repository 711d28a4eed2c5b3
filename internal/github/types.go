package github

import (
	"encoding/json"
	"time"
)

// Repository is the subset of GitHub's repository representation used for
// listing and fan-out. GitHub returns a much larger object; only the fields
// needed are unmarshalled.
type Repository struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	FullName  string    `json:"full_name"`
	Private   bool      `json:"private"`
	HTMLURL   string    `json:"html_url"`
	UpdatedAt time.Time `json:"updated_at"`
	PushedAt  time.Time `json:"pushed_at"`
	Language  string    `json:"language"`
}

// Event is a repository or user timeline event. Push events are filtered
// from these client-side since GitHub has no dedicated push listing.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Repo      EventRepo       `json:"repo"`
	Payload   json.RawMessage `json:"payload"`
}

type EventRepo struct {
	Name string `json:"name"`
}

// EventTypePush marks push events in GitHub's event stream.
const EventTypePush = "PushEvent"

type PullRequest struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	User      Actor     `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Issue is an entry from the issues listing. GitHub reports pull requests
// through the same endpoint; such entries carry a non-nil PullRequestRef and
// must be excluded from issue results.
type Issue struct {
	ID             int64            `json:"id"`
	Number         int              `json:"number"`
	Title          string           `json:"title"`
	State          string           `json:"state"`
	HTMLURL        string           `json:"html_url"`
	User           Actor            `json:"user"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	PullRequestRef *json.RawMessage `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether this issue entry is actually a pull request.
func (i *Issue) IsPullRequest() bool {
	return i.PullRequestRef != nil
}

type Actor struct {
	Login string `json:"login"`
}

type Commit struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Commit  CommitDetail `json:"commit"`
	Author  *Actor       `json:"author"`
}

type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// User is the authenticated-user profile returned by GET /user.
type User struct {
	ID                int64  `json:"id"`
	Login             string `json:"login"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	AvatarURL         string `json:"avatar_url"`
	PublicRepos       int    `json:"public_repos"`
	TotalPrivateRepos int    `json:"total_private_repos"`
	Followers         int    `json:"followers"`
	Following         int    `json:"following"`
}
