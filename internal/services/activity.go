package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/izzyjosh/brandai/internal/cache"
	"github.com/izzyjosh/brandai/internal/config"
	"github.com/izzyjosh/brandai/internal/crypto"
	"github.com/izzyjosh/brandai/internal/github"
	"github.com/izzyjosh/brandai/internal/util"
)

const (
	// fanOutRepoCap bounds how many repositories a cross-repository query
	// touches. One full page at GitHub's maximum page size.
	fanOutRepoCap = 100

	// recentItemCap is how many items of each kind the activity summary
	// carries.
	recentItemCap = 10

	defaultPerPage = 30
)

// ActivityQuery carries the common filters for activity lookups. Repo is
// "owner/name"; when empty the query fans out across every repository the
// user owns. Since and Until bound the time window when set.
type ActivityQuery struct {
	Repo    string
	Since   *time.Time
	Until   *time.Time
	State   string // pull requests and issues: "open", "closed" or "all"
	Author  string // commits only
	Page    int
	PerPage int
}

func (q ActivityQuery) page() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

func (q ActivityQuery) perPage() int {
	if q.PerPage < 1 {
		return defaultPerPage
	}
	if q.PerPage > github.MaxPerPage {
		return github.MaxPerPage
	}
	return q.PerPage
}

func (q ActivityQuery) state() string {
	if q.State == "" {
		return "all"
	}
	return q.State
}

// inWindow applies the local time filter for endpoints GitHub cannot filter
// server-side.
func (q ActivityQuery) inWindow(ts time.Time) bool {
	if q.Since != nil && ts.Before(*q.Since) {
		return false
	}
	if q.Until != nil && ts.After(*q.Until) {
		return false
	}
	return true
}

// ActivitySummary is the combined cross-repository activity report.
type ActivitySummary struct {
	Repositories  int                  `json:"repositories"`
	Pushes        int                  `json:"pushes"`
	PullRequests  int                  `json:"pull_requests"`
	Issues        int                  `json:"issues"`
	Commits       int                  `json:"commits"`
	RecentRepos   []RepoSummary        `json:"repositories_list"`
	RecentPushes  []github.Event       `json:"recent_pushes"`
	RecentPRs     []github.PullRequest `json:"recent_prs"`
	RecentIssues  []github.Issue       `json:"recent_issues"`
	RecentCommits []github.Commit      `json:"recent_commits"`
}

type RepoSummary struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityService answers activity queries for a user's stored GitHub
// credential. Each call decrypts the token, drives the API client, and for
// cross-repository queries merges per-repository results into one ordered
// window. A repository that fails to answer is logged and skipped so one bad
// repository cannot sink the whole aggregate.
type ActivityService struct {
	config *config.Config
	client *github.Client
	cipher *crypto.Cipher
	repos  cache.Cache[[]github.Repository]
}

// NewActivityService builds the aggregator. The repository cache is optional;
// when present, fan-out repository listings are reused across calls.
func NewActivityService(
	cfg *config.Config,
	client *github.Client,
	cipher *crypto.Cipher,
	repos cache.Cache[[]github.Repository],
) *ActivityService {
	return &ActivityService{
		config: cfg,
		client: client,
		cipher: cipher,
		repos:  repos,
	}
}

// ListRepositories returns the user's repositories ordered by last update.
func (s *ActivityService) ListRepositories(
	ctx context.Context,
	encryptedToken string,
	q ActivityQuery,
) ([]github.Repository, error) {
	token, err := s.cipher.Decrypt(encryptedToken)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"page":      {strconv.Itoa(q.page())},
		"per_page":  {strconv.Itoa(q.perPage())},
		"sort":      {"updated"},
		"direction": {"desc"},
	}
	if q.Since != nil {
		params.Set("since", q.Since.Format(time.RFC3339))
	}

	body, err := s.client.Request(ctx, token, "GET", "/user/repos", params)
	if err != nil {
		return nil, err
	}

	var repos []github.Repository
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, fmt.Errorf("failed to decode repository listing: %w", err)
	}
	return repos, nil
}

// Pushes returns push events. For a single repository the repo event stream
// is filtered; without a repository GitHub's public user timeline is used
// since there is no cross-repository push endpoint.
func (s *ActivityService) Pushes(
	ctx context.Context,
	encryptedToken string,
	q ActivityQuery,
) ([]github.Event, error) {
	token, err := s.cipher.Decrypt(encryptedToken)
	if err != nil {
		return nil, err
	}

	endpoint := "/user/events/public"
	if q.Repo != "" {
		endpoint = "/repos/" + q.Repo + "/events"
	}
	params := url.Values{
		"page":     {strconv.Itoa(q.page())},
		"per_page": {strconv.Itoa(q.perPage())},
	}

	body, err := s.client.Request(ctx, token, "GET", endpoint, params)
	if err != nil {
		return nil, err
	}

	var events []github.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode event listing: %w", err)
	}

	pushes := make([]github.Event, 0, len(events))
	for _, e := range events {
		if e.Type != github.EventTypePush {
			continue
		}
		if !q.inWindow(e.CreatedAt) {
			continue
		}
		pushes = append(pushes, e)
	}
	return pushes, nil
}

// PullRequests returns pull requests for one repository, or merged across
// all of the user's repositories when no repository is given.
func (s *ActivityService) PullRequests(
	ctx context.Context,
	encryptedToken string,
	q ActivityQuery,
) ([]github.PullRequest, error) {
	token, err := s.cipher.Decrypt(encryptedToken)
	if err != nil {
		return nil, err
	}

	if q.Repo != "" {
		return s.repoPullRequests(ctx, token, q.Repo, q, q.page())
	}

	repos, err := s.fanOutRepos(ctx, encryptedToken, token)
	if err != nil {
		return nil, err
	}

	var all []github.PullRequest
	for _, repo := range repos {
		prs, err := s.repoPullRequests(ctx, token, repo.FullName, q, 1)
		if err != nil {
			log.Printf("activity: skipping pull requests for %s: %v", repo.FullName, err)
			continue
		}
		all = append(all, prs...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return pageWindow(all, q.page(), q.perPage()), nil
}

func (s *ActivityService) repoPullRequests(
	ctx context.Context,
	token, repo string,
	q ActivityQuery,
	page int,
) ([]github.PullRequest, error) {
	params := url.Values{
		"state":     {q.state()},
		"page":      {strconv.Itoa(page)},
		"per_page":  {strconv.Itoa(q.perPage())},
		"sort":      {"updated"},
		"direction": {"desc"},
	}

	body, err := s.client.Request(ctx, token, "GET", "/repos/"+repo+"/pulls", params)
	if err != nil {
		return nil, err
	}

	var prs []github.PullRequest
	if err := json.Unmarshal(body, &prs); err != nil {
		return nil, fmt.Errorf("failed to decode pull request listing: %w", err)
	}

	filtered := prs[:0]
	for _, pr := range prs {
		if q.inWindow(pr.UpdatedAt) {
			filtered = append(filtered, pr)
		}
	}
	return filtered, nil
}

// Issues returns issues, excluding the pull requests GitHub reports through
// the same endpoint.
func (s *ActivityService) Issues(
	ctx context.Context,
	encryptedToken string,
	q ActivityQuery,
) ([]github.Issue, error) {
	token, err := s.cipher.Decrypt(encryptedToken)
	if err != nil {
		return nil, err
	}

	if q.Repo != "" {
		return s.repoIssues(ctx, token, q.Repo, q, q.page())
	}

	repos, err := s.fanOutRepos(ctx, encryptedToken, token)
	if err != nil {
		return nil, err
	}

	var all []github.Issue
	for _, repo := range repos {
		issues, err := s.repoIssues(ctx, token, repo.FullName, q, 1)
		if err != nil {
			log.Printf("activity: skipping issues for %s: %v", repo.FullName, err)
			continue
		}
		all = append(all, issues...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return pageWindow(all, q.page(), q.perPage()), nil
}

func (s *ActivityService) repoIssues(
	ctx context.Context,
	token, repo string,
	q ActivityQuery,
	page int,
) ([]github.Issue, error) {
	params := url.Values{
		"state":     {q.state()},
		"page":      {strconv.Itoa(page)},
		"per_page":  {strconv.Itoa(q.perPage())},
		"sort":      {"updated"},
		"direction": {"desc"},
	}

	body, err := s.client.Request(ctx, token, "GET", "/repos/"+repo+"/issues", params)
	if err != nil {
		return nil, err
	}

	var issues []github.Issue
	if err := json.Unmarshal(body, &issues); err != nil {
		return nil, fmt.Errorf("failed to decode issue listing: %w", err)
	}

	filtered := issues[:0]
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		if !q.inWindow(issue.UpdatedAt) {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered, nil
}

// Commits returns commit history. GitHub filters commits server-side, so the
// since/until/author filters are passed through instead of applied locally.
func (s *ActivityService) Commits(
	ctx context.Context,
	encryptedToken string,
	q ActivityQuery,
) ([]github.Commit, error) {
	token, err := s.cipher.Decrypt(encryptedToken)
	if err != nil {
		return nil, err
	}

	if q.Repo != "" {
		return s.repoCommits(ctx, token, q.Repo, q, q.page())
	}

	repos, err := s.fanOutRepos(ctx, encryptedToken, token)
	if err != nil {
		return nil, err
	}

	var all []github.Commit
	for _, repo := range repos {
		commits, err := s.repoCommits(ctx, token, repo.FullName, q, 1)
		if err != nil {
			log.Printf("activity: skipping commits for %s: %v", repo.FullName, err)
			continue
		}
		all = append(all, commits...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Commit.Author.Date.After(all[j].Commit.Author.Date)
	})
	return pageWindow(all, q.page(), q.perPage()), nil
}

func (s *ActivityService) repoCommits(
	ctx context.Context,
	token, repo string,
	q ActivityQuery,
	page int,
) ([]github.Commit, error) {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(q.perPage())},
	}
	if q.Since != nil {
		params.Set("since", q.Since.Format(time.RFC3339))
	}
	if q.Until != nil {
		params.Set("until", q.Until.Format(time.RFC3339))
	}
	if q.Author != "" {
		params.Set("author", q.Author)
	}

	body, err := s.client.Request(ctx, token, "GET", "/repos/"+repo+"/commits", params)
	if err != nil {
		return nil, err
	}

	var commits []github.Commit
	if err := json.Unmarshal(body, &commits); err != nil {
		return nil, fmt.Errorf("failed to decode commit listing: %w", err)
	}
	return commits, nil
}

// UserActivity runs every query over the same window and reports counts plus
// the most recent items of each kind. The queries are independent snapshots,
// not a consistent transaction.
func (s *ActivityService) UserActivity(
	ctx context.Context,
	encryptedToken string,
	since, until *time.Time,
) (*ActivitySummary, error) {
	q := ActivityQuery{Since: since, Until: until, Page: 1, PerPage: github.MaxPerPage}

	repos, err := s.ListRepositories(ctx, encryptedToken, q)
	if err != nil {
		return nil, err
	}
	pushes, err := s.Pushes(ctx, encryptedToken, q)
	if err != nil {
		return nil, err
	}
	prs, err := s.PullRequests(ctx, encryptedToken, q)
	if err != nil {
		return nil, err
	}
	issues, err := s.Issues(ctx, encryptedToken, q)
	if err != nil {
		return nil, err
	}
	commits, err := s.Commits(ctx, encryptedToken, q)
	if err != nil {
		return nil, err
	}

	recentRepos := make([]RepoSummary, 0, recentItemCap)
	for _, r := range repos[:min(len(repos), recentItemCap)] {
		recentRepos = append(recentRepos, RepoSummary{Name: r.FullName, UpdatedAt: r.UpdatedAt})
	}

	return &ActivitySummary{
		Repositories:  len(repos),
		Pushes:        len(pushes),
		PullRequests:  len(prs),
		Issues:        len(issues),
		Commits:       len(commits),
		RecentRepos:   recentRepos,
		RecentPushes:  pushes[:min(len(pushes), recentItemCap)],
		RecentPRs:     prs[:min(len(prs), recentItemCap)],
		RecentIssues:  issues[:min(len(issues), recentItemCap)],
		RecentCommits: commits[:min(len(commits), recentItemCap)],
	}, nil
}

// fanOutRepos resolves the repository set for a cross-repository query. The
// cache key is derived from the ciphertext so the plaintext token never
// leaves this package.
func (s *ActivityService) fanOutRepos(
	ctx context.Context,
	encryptedToken, token string,
) ([]github.Repository, error) {
	var key string
	if s.repos != nil {
		key = "activity:repos:" + util.SHA256Hex(encryptedToken)
		if cached, err := s.repos.Get(ctx, key); err == nil {
			return cached, nil
		}
	}

	params := url.Values{
		"sort":      {"updated"},
		"direction": {"desc"},
	}
	pages, err := s.client.FetchAllPages(ctx, token, "/user/repos", params, 1)
	if err != nil {
		return nil, err
	}

	repos := make([]github.Repository, 0, len(pages))
	for _, raw := range pages {
		var repo github.Repository
		if err := json.Unmarshal(raw, &repo); err != nil {
			return nil, fmt.Errorf("failed to decode repository listing: %w", err)
		}
		repos = append(repos, repo)
	}
	if len(repos) > fanOutRepoCap {
		repos = repos[:fanOutRepoCap]
	}

	if s.repos != nil {
		if err := s.repos.Set(ctx, key, repos, s.config.RepoCacheTTL); err != nil {
			log.Printf("activity: failed to cache repository listing: %v", err)
		}
	}
	return repos, nil
}

// pageWindow slices the caller's page out of a merged, sorted result set.
func pageWindow[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
